// Command hagctl is a small interactive test client for a hag1 server,
// grounded on the os.Args-switch CLI style of cmd/ocx-cli/main.go.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dhag/Py.HagLib.Socket/internal/client"
	"github.com/dhag/Py.HagLib.Socket/internal/fabric"
	"github.com/dhag/Py.HagLib.Socket/internal/protocol"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "connect":
		cmdConnect(os.Args[2:])
	case "version":
		fmt.Printf("hagctl v%s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hagctl v` + version + `

Usage: hagctl connect [flags]

Flags:
  --addr    Server address (default: localhost:9100)
  --user    User id (default: 1)
  --group   Group id (default: 1)

Once connected, type a line and press enter to send it as PlainText to
the server (destination 0xFFFF/0xFFFF, i.e. broadcast). Type /quit to
disconnect.`)
}

func cmdConnect(args []string) {
	addr := "localhost:9100"
	var userID, groupID uint64 = 1, 1

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--addr":
			i++
			if i < len(args) {
				addr = args[i]
			}
		case "--user":
			i++
			if i < len(args) {
				userID, _ = strconv.ParseUint(args[i], 10, 32)
			}
		case "--group":
			i++
			if i < len(args) {
				groupID, _ = strconv.ParseUint(args[i], 10, 32)
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	hub := fabric.NewHub(logger)
	hub.AddTextListener(func(message string, frame *protocol.Frame) {
		fmt.Printf("[text from user=%d group=%d] %s\n", frame.Header.SrcUserID, frame.Header.SrcGroupID, message)
	})
	hub.AddLogMessageListener(func(message string) {
		fmt.Printf("[log] %s\n", message)
	})

	c := client.New(hub, 0, logger)
	ctx := context.Background()
	if err := c.Connect(ctx, addr, uint32(userID), uint32(groupID)); err != nil {
		fmt.Fprintf(os.Stderr, "connect failed: %v\n", err)
		os.Exit(1)
	}
	defer c.Disconnect()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" {
			return
		}
		if line == "" {
			continue
		}
		frame := protocol.Text(protocol.WildcardID, protocol.WildcardID, uint32(groupID), uint32(userID), line)
		if err := c.SendData(frame); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			return
		}
	}
}
