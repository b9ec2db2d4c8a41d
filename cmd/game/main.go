package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mitigd/deictic-void/internal/game"
)

func main() {
	store := openStore()
	gen := game.NewGenerator(time.Now().UnixNano())
	m := game.NewMachine(gen, store)

	ebiten.SetWindowTitle("Deictic Void")
	ebiten.SetWindowSize(888, 552)
	if err := ebiten.RunGame(game.New(m)); err != nil {
		log.Fatal(err)
	}
}

// openStore places the save file under the user config dir, falling back to
// an in-memory store when the filesystem is unavailable. Progress loss is
// preferable to refusing to start.
func openStore() game.Store {
	dir, err := os.UserConfigDir()
	if err == nil {
		fs, ferr := game.NewFileStore(filepath.Join(dir, "deictic-void"))
		if ferr == nil {
			return fs
		}
		err = ferr
	}
	log.Printf("save directory unavailable, progress will not persist: %v", err)
	return &game.MemStore{}
}
