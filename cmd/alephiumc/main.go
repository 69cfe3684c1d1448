package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/suyanlong/alephium/internal/compiler"
	cerrors "github.com/suyanlong/alephium/internal/errors"
	"github.com/suyanlong/alephium/internal/parser"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: alephiumc <file.ral> [target-index] [loop-unrolling-limit]")
		os.Exit(1)
	}

	startTime := time.Now()
	path := os.Args[1]
	targetIndex := 0
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil {
			targetIndex = n
		}
	}
	cfg := compiler.DefaultConfig()
	if len(os.Args) > 3 {
		if n, err := strconv.Atoi(os.Args[3]); err == nil {
			cfg.LoopUnrollingLimit = n
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		os.Exit(1)
	}

	reporter := cerrors.NewErrorReporter(path, string(source))

	mc, err := parser.Parse(string(source))
	if err != nil {
		color.Red("parse error: %v", err)
		os.Exit(1)
	}

	result, errs := compiler.Compile(mc, cfg, targetIndex)
	duration := time.Since(startTime)

	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Print(reporter.FormatError(e))
		}
		fmt.Print(cerrors.FormatSummary(errs))
		color.Red("Compilation failed after %s", formatDuration(duration))
		os.Exit(1)
	}

	printOutput(result.Output)
	for _, w := range result.Warnings {
		color.Yellow("warning: %s", w)
	}
	color.Green("Successfully compiled %s in %s", path, formatDuration(duration))
}

func printOutput(out compiler.Output) {
	switch {
	case out.Stateless != nil:
		fmt.Println("StatelessScript:")
		printMethods(out.Stateless.Methods)
	case out.Stateful != nil:
		fmt.Println("StatefulScript:")
		printMethods(out.Stateful.Methods)
	case out.Contract != nil:
		fmt.Printf("StatefulContract (fieldLength=%d):\n", out.Contract.FieldLength)
		printMethods(out.Contract.Methods)
	}
}

func printMethods(methods []compiler.Method) {
	for i, m := range methods {
		fmt.Printf("  method %d: public=%v args=%d locals=%d returns=%d\n",
			i, m.IsPublic, m.ArgsLength, m.LocalsLength, m.ReturnLength)
		var lines []string
		for _, instr := range m.Instrs {
			lines = append(lines, instr.String())
		}
		fmt.Printf("    %s\n", strings.Join(lines, ", "))
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
