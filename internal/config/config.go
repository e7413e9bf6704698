package config

import (
	"os"
	"strconv"
	"time"
)

// Game holds the rules every session is created with.
type Game struct {
	BoardSize int

	// FleetQuota maps ship length to the number of ships of that
	// length a valid fleet must contain.
	FleetQuota map[int]int
}

type Config struct {
	HTTPAddr     string
	StaticDir    string
	PingInterval time.Duration

	Game Game
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() Config {
	return Config{
		HTTPAddr:     getenvStr("HTTP_ADDR", ":8181"),
		StaticDir:    getenvStr("STATIC_DIR", "./front"),
		PingInterval: time.Duration(getenvInt("PING_INTERVAL_SECONDS", 30)) * time.Second,
		Game:         LoadGame(),
	}
}

// LoadGame reads the game rules from the environment. The defaults are
// the classic setup: a 10x10 board with one 4-cell ship, two 3-cell
// ships, three 2-cell ships and four 1-cell ships.
func LoadGame() Game {
	return Game{
		BoardSize: getenvInt("BOARD_SIZE", 10),
		FleetQuota: map[int]int{
			4: getenvInt("SHIPS_LEN4", 1),
			3: getenvInt("SHIPS_LEN3", 2),
			2: getenvInt("SHIPS_LEN2", 3),
			1: getenvInt("SHIPS_LEN1", 4),
		},
	}
}

// FleetSize returns the total number of ships a valid fleet contains.
func (g Game) FleetSize() int {
	n := 0
	for _, c := range g.FleetQuota {
		n += c
	}
	return n
}
