// Command prayer-status prints the next prayer on one line for status bars
// such as tmux. It accepts every myprayer flag; output defaults to
// name-and-time and falls back to "--:--" on failure.
package main

import (
	"context"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/smokyabdulrahman/myprayer/internal/cli"
	"github.com/smokyabdulrahman/myprayer/internal/prayer"
)

var version = "dev"

// statusTimeout bounds a refresh so a slow provider cannot stall the bar.
const statusTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	rootCmd := cli.NewRootCmd(version)
	args := append([]string{"next", "--format", prayer.FormatNameAndTime}, os.Args[1:]...)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Print("--:--")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
