// Command signal_lint parses candidate signal messages offline and prints
// what the bot would extract from each. Useful when onboarding a new signal
// channel whose message format has not been seen before.
//
// Messages are read from a file (or stdin) and separated by lines containing
// only "---".
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"pocketSignalBot/internal/domain"
	"pocketSignalBot/internal/parser"
)

func main() {
	path := flag.String("file", "", "file with candidate messages separated by --- lines (default: stdin)")
	flag.Parse()

	in := os.Stdin
	if *path != "" {
		f, err := os.Open(*path)
		if err != nil {
			log.Fatalf("FATAL: Failed to open %s: %v", *path, err)
		}
		defer f.Close()
		in = f
	}

	messages, err := readMessages(in)
	if err != nil {
		log.Fatalf("FATAL: Failed to read messages: %v", err)
	}
	if len(messages) == 0 {
		log.Fatal("FATAL: No messages to lint")
	}

	parsed := 0
	for i, msg := range messages {
		fmt.Printf("--- message %d ---\n", i+1)
		sig := parser.Parse(msg)
		if sig == nil {
			fmt.Println("NOT A SIGNAL: missing pair, direction, or expiry")
			continue
		}
		parsed++
		fmt.Printf("pair       : %s\n", sig.Pair)
		fmt.Printf("position   : %s\n", sig.Direction.Position())
		fmt.Printf("expiration : %s (%d seconds)\n", domain.ExpirationLabel(sig.Expiry), sig.Expiry)
		if sig.HasEntryTime() {
			fmt.Printf("entry time : %s (UTC-4)\n", sig.EntryTime)
		} else {
			fmt.Println("entry time : immediate")
		}
	}

	fmt.Printf("\n%d of %d messages parsed as signals\n", parsed, len(messages))
	if parsed == 0 {
		os.Exit(1)
	}
}

func readMessages(in *os.File) ([]string, error) {
	var messages []string
	var current strings.Builder

	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			messages = append(messages, text)
		}
		current.Reset()
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			flush()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return messages, nil
}
