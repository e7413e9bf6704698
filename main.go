package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"battleship/internal/config"
	"battleship/internal/game"
	"battleship/internal/session"
)

// Terminal version of the game: you against a randomly firing CPU.
func main() {
	rules := config.LoadGame()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	const you, cpu = 1, 2
	sess := session.New(1, you, cpu, rules, rng)
	if _, err := sess.PlaceFleet(you, game.RandomFleet(rules, rng)); err != nil {
		fmt.Println("placement failed:", err)
		os.Exit(1)
	}
	if _, err := sess.PlaceFleet(cpu, game.RandomFleet(rules, rng)); err != nil {
		fmt.Println("placement failed:", err)
		os.Exit(1)
	}

	fmt.Println("Your fleet:")
	printFleet(sess.Fleet(you), rules.BoardSize)
	fmt.Println("Enter shots as: x y (or just 'r' for a random shot)")

	reader := bufio.NewReader(os.Stdin)
	for !sess.Finished() {
		if sess.CurrentPlayer() == you {
			fmt.Println("\nEnemy waters:")
			printGrid(sess.ShotsAt(cpu))

			fmt.Print("> ")
			line, _ := reader.ReadString('\n')
			var res session.AttackResult
			var err error
			if strings.TrimSpace(line) == "r" {
				res, err = sess.RandomAttack(you)
			} else {
				parts := strings.Fields(line)
				if len(parts) != 2 {
					fmt.Println("Format: x y")
					continue
				}
				x, _ := strconv.Atoi(parts[0])
				y, _ := strconv.Atoi(parts[1])
				res, err = sess.Attack(you, game.Position{X: x, Y: y})
			}
			if err != nil {
				fmt.Println("Invalid shot:", err)
				continue
			}
			fmt.Printf("You fire at (%d,%d): %s\n", res.Position.X, res.Position.Y, res.Status)
		} else {
			res, err := sess.RandomAttack(cpu)
			if err != nil {
				fmt.Println("CPU cannot fire:", err)
				break
			}
			fmt.Printf("CPU fires at (%d,%d): %s\n", res.Position.X, res.Position.Y, res.Status)
		}
	}

	if winner, ok := sess.Winner(); ok {
		if winner == you {
			fmt.Println("\nYou win!")
		} else {
			fmt.Println("\nCPU wins.")
		}
	}
}

func printGrid(g game.ShotGrid) {
	for _, row := range g {
		for _, cell := range row {
			switch cell {
			case game.CellHit:
				fmt.Print("X ")
			case game.CellMiss:
				fmt.Print("o ")
			default:
				fmt.Print(". ")
			}
		}
		fmt.Println()
	}
}

func printFleet(fleet []game.Ship, size int) {
	occupied := make(map[game.Position]bool)
	for _, s := range fleet {
		for _, c := range s.Cells() {
			occupied[c] = true
		}
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if occupied[game.Position{X: x, Y: y}] {
				fmt.Print("# ")
			} else {
				fmt.Print(". ")
			}
		}
		fmt.Println()
	}
}
