package main

import (
	"flag"
	"fmt"

	"github.com/mitigd/deictic-void/internal/game"
)

type runStats struct {
	runIndex int
	seed     int64

	finalLevel int
	maxLevel   int
	score      int

	wins       int
	losses     int
	levelUps   int
	levelDowns int
	expiries   int

	genRounds    int
	genAttempts  int
	genFailsafes int

	topWeakness string
}

func main() {
	var runs int
	var rounds int
	var skill float64
	var level int
	var seedBase int64
	var seedStep int64
	var expire bool

	flag.IntVar(&runs, "runs", 5, "number of headless sessions")
	flag.IntVar(&rounds, "rounds", 60, "rounds per session")
	flag.Float64Var(&skill, "skill", 0.75, "scripted player solve probability")
	flag.IntVar(&level, "level", 1, "starting level (1-99)")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.BoolVar(&expire, "expire", false, "fail rounds by running out the clock instead of clicking wrong")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if rounds <= 0 {
		fmt.Println("error: -rounds must be > 0")
		return
	}
	if skill < 0 || skill > 1 {
		fmt.Println("error: -skill must be in [0,1]")
		return
	}
	if level < 1 || level > 99 {
		fmt.Println("error: -level must be in [1,99]")
		return
	}

	fmt.Printf("=== Headless Session Report ===\n")
	fmt.Printf("runs=%d rounds=%d skill=%.2f level=%d seed_base=%d seed_step=%d expire=%t\n\n",
		runs, rounds, skill, level, seedBase, seedStep, expire)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats := runSession(i+1, seed, rounds, skill, level, expire)
		all = append(all, stats)
		printRun(stats)
	}
	printAggregate(all)
}

func runSession(runIndex int, seed int64, rounds int, skill float64, level int, expire bool) runStats {
	opts := []game.SessionOption{
		game.WithSeed(seed),
		game.WithSolveChance(skill),
		game.WithStartLevel(level),
	}
	if expire {
		opts = append(opts, game.WithTimerExpiry())
	}
	ts := game.NewTestSession(opts...)
	ts.RunRounds(rounds)
	ts.M.Stop()

	st := ts.M.State()
	ev := ts.M.Events()
	gs := ts.Gen.Stats()

	top := ""
	if weak := ts.M.Analytics().TopWeaknesses(1); len(weak) > 0 {
		top = fmt.Sprintf("%s %.0f%% (%d/%d)",
			weak[0].Key, weak[0].Rate*100, weak[0].Failures, weak[0].Attempts)
	}

	return runStats{
		runIndex:     runIndex,
		seed:         seed,
		finalLevel:   st.Level,
		maxLevel:     st.MaxLevel,
		score:        st.Score,
		wins:         ev.CountCategory("round", "win"),
		losses:       ev.CountCategory("round", "loss"),
		levelUps:     ev.CountCategory("level", "up"),
		levelDowns:   ev.CountCategory("level", "down"),
		expiries:     ev.CountCategory("timer", "expired"),
		genRounds:    gs.Rounds,
		genAttempts:  gs.Attempts,
		genFailsafes: gs.Failsafes,
		topWeakness:  top,
	}
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("progression: final_level=%d max_level=%d score=%d\n", rs.finalLevel, rs.maxLevel, rs.score)
	fmt.Printf("rounds: wins=%d losses=%d timer_expiries=%d level_ups=%d level_downs=%d\n",
		rs.wins, rs.losses, rs.expiries, rs.levelUps, rs.levelDowns)
	fmt.Printf("generation: rounds=%d attempts=%d (%.1f/round) failsafes=%d\n",
		rs.genRounds, rs.genAttempts, perRound(rs.genAttempts, rs.genRounds), rs.genFailsafes)
	if rs.topWeakness != "" {
		fmt.Printf("top_weakness: %s\n", rs.topWeakness)
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	totalWins, totalLosses := 0, 0
	totalUps, totalDowns := 0, 0
	totalScore := 0
	totalLevel := 0
	totalAttempts, totalGenRounds, totalFailsafes := 0, 0, 0
	for _, rs := range all {
		totalWins += rs.wins
		totalLosses += rs.losses
		totalUps += rs.levelUps
		totalDowns += rs.levelDowns
		totalScore += rs.score
		totalLevel += rs.finalLevel
		totalAttempts += rs.genAttempts
		totalGenRounds += rs.genRounds
		totalFailsafes += rs.genFailsafes
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", len(all))
	fmt.Printf("avg_per_run: wins=%.1f losses=%.1f level_ups=%.1f level_downs=%.1f score=%.1f final_level=%.1f\n",
		avg(totalWins, len(all)), avg(totalLosses, len(all)),
		avg(totalUps, len(all)), avg(totalDowns, len(all)),
		avg(totalScore, len(all)), avg(totalLevel, len(all)))
	fmt.Printf("generation: attempts_per_puzzle=%.2f failsafes=%d\n",
		perRound(totalAttempts, totalGenRounds), totalFailsafes)
}

func avg(sum, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func perRound(attempts, rounds int) float64 {
	if rounds <= 0 {
		return 0
	}
	return float64(attempts) / float64(rounds)
}
