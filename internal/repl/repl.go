package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/alexchoi0/blueprint-engine/internal/runtime"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

const prompt = ">> "
const contPrompt = ".. "

// Start runs the interactive loop against a fresh module scope that
// persists across inputs. History lives in the user's home directory.
func Start(r *runtime.Runtime, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := historyFile()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	scope := value.NewEnclosedScope(r.Universe())

	fmt.Fprintf(out, "blueprint %s (workers=%d)\n", runtime.Version, r.Config.Workers)

	for {
		input, err := readInput(line)
		if err != nil {
			fmt.Fprintln(out)
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		program, perr := runtime.Parse(input, "<repl>")
		if perr != nil {
			fmt.Fprintln(out, perr)
			continue
		}

		result, rerr := r.Run(program, scope, "<repl>")
		if rerr != nil {
			fmt.Fprintln(out, rerr)
			continue
		}
		if result != nil && result != value.None {
			fmt.Fprintln(out, result.Inspect())
		}
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
}

// readInput collects one logical input. A line ending in a colon opens a
// block, which continues until a blank line.
func readInput(line *liner.State) (string, error) {
	first, err := line.Prompt(prompt)
	if err != nil {
		if err == liner.ErrPromptAborted {
			return "", nil
		}
		return "", err
	}
	if !strings.HasSuffix(strings.TrimSpace(first), ":") {
		return first, nil
	}

	parts := []string{first}
	for {
		next, err := line.Prompt(contPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				return "", nil
			}
			return "", err
		}
		if strings.TrimSpace(next) == "" {
			break
		}
		parts = append(parts, next)
	}
	return strings.Join(parts, "\n") + "\n", nil
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".blueprint_history")
}
