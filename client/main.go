package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bittrickle/common"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Println("Usage: client <tracker_addr|port> [share_dir]")
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	trackerAddr := os.Args[1]
	if _, convErr := strconv.Atoi(trackerAddr); convErr == nil {
		trackerAddr = "127.0.0.1:" + trackerAddr
	}
	shareDir := "."
	if len(os.Args) == 3 {
		shareDir = os.Args[2]
	}
	if info, statErr := os.Stat(shareDir); statErr != nil || !info.IsDir() {
		fmt.Printf("Share directory %q is not usable.\n", shareDir)
		os.Exit(1)
	}

	tracker, err := DialTracker(trackerAddr)
	if err != nil {
		log.Fatalw("tracker unreachable", "addr", trackerAddr, "err", err)
	}
	defer tracker.Close()

	ln, port, err := StartPeerServer(shareDir, log)
	if err != nil {
		log.Fatalw("transfer listener failed", "err", err)
	}
	defer ln.Close()

	state := &ClientState{
		ShareDir:     shareDir,
		TransferPort: port,
		Tracker:      tracker,
	}

	stdin := bufio.NewScanner(os.Stdin)
	if !authenticate(state, stdin) {
		fmt.Println("Failed to authenticate. Exiting.")
		return
	}

	fmt.Println("Welcome to BitTrickle!")
	fmt.Println("Available commands: get, lap, lpf, pub, sch, unp, xit")

	stop := make(chan struct{})
	go RunHeartbeat(tracker, state.Username, stop, log)
	defer close(stop)

	commandLoop(state, stdin, log)
}

// authenticate prompts for credentials until the tracker accepts them. A
// timed-out request is reported and the user may simply try again; there
// is no automatic retry.
func authenticate(state *ClientState, stdin *bufio.Scanner) bool {
	for {
		username, ok := prompt(stdin, "Enter username: ")
		if !ok {
			return false
		}
		password, ok := prompt(stdin, "Enter password: ")
		if !ok {
			return false
		}

		resp, err := state.Tracker.Request(common.Message{
			Type:         common.TypeAuth,
			Username:     username,
			Password:     password,
			TransferPort: state.TransferPort,
		})
		if err != nil {
			fmt.Printf("%v. Retrying...\n", err)
			continue
		}
		if resp.Status == common.StatusOK {
			state.Username = username
			return true
		}
		fmt.Printf("Authentication failed: %s\n", resp.Reason)
	}
}

func commandLoop(state *ClientState, stdin *bufio.Scanner, log *zap.SugaredLogger) {
	for {
		line, ok := prompt(stdin, "> ")
		if !ok {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "lap":
			doListPeers(state)
		case "lpf":
			doListFiles(state)
		case "pub":
			if len(args) != 1 {
				fmt.Println("Usage: pub <filename>")
				continue
			}
			doPublish(state, args[0])
		case "unp":
			if len(args) != 1 {
				fmt.Println("Usage: unp <filename>")
				continue
			}
			doUnpublish(state, args[0])
		case "sch":
			if len(args) != 1 {
				fmt.Println("Usage: sch <substring>")
				continue
			}
			doSearch(state, args[0])
		case "get":
			if len(args) != 1 {
				fmt.Println("Usage: get <filename>")
				continue
			}
			doGet(state, args[0], log)
		case "xit":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Unknown command. Available commands: get, lap, lpf, pub, sch, unp, xit")
		}
	}
}

func doListPeers(state *ClientState) {
	resp, err := request(state, common.Message{Type: common.TypeListPeers, Username: state.Username})
	if err != nil {
		return
	}
	if resp.Status != common.StatusOK {
		fmt.Printf("Peer listing failed: %s\n", resp.Reason)
		return
	}
	if len(resp.Peers) == 0 {
		fmt.Println("No active peers.")
		return
	}
	fmt.Printf("%d active peer(s):\n", len(resp.Peers))
	for _, peer := range resp.Peers {
		fmt.Println(peer)
	}
}

func doListFiles(state *ClientState) {
	resp, err := request(state, common.Message{Type: common.TypeListFiles, Username: state.Username})
	if err != nil {
		return
	}
	if resp.Status != common.StatusOK {
		fmt.Printf("File listing failed: %s\n", resp.Reason)
		return
	}
	if len(resp.Files) == 0 {
		fmt.Println("No files published.")
		return
	}
	fmt.Printf("%d file(s) published:\n", len(resp.Files))
	for _, file := range resp.Files {
		fmt.Println(file)
	}
}

func doPublish(state *ClientState, filename string) {
	resp, err := request(state, common.Message{
		Type:     common.TypePublish,
		Username: state.Username,
		Filename: filename,
	})
	if err != nil {
		return
	}
	if resp.Status == common.StatusOK {
		fmt.Println(resp.Message)
	}
}

func doUnpublish(state *ClientState, filename string) {
	resp, err := request(state, common.Message{
		Type:     common.TypeUnpublish,
		Username: state.Username,
		Filename: filename,
	})
	if err != nil {
		return
	}
	if resp.Status == common.StatusOK {
		fmt.Println(resp.Message)
	} else {
		fmt.Printf("File unpublication failed: %s\n", resp.Reason)
	}
}

func doSearch(state *ClientState, substring string) {
	resp, err := request(state, common.Message{
		Type:      common.TypeSearch,
		Username:  state.Username,
		Substring: substring,
	})
	if err != nil {
		return
	}
	if resp.Status != common.StatusOK {
		fmt.Printf("Search failed: %s\n", resp.Reason)
		return
	}
	if len(resp.Files) == 0 {
		fmt.Println("No files found.")
		return
	}
	fmt.Printf("%d file(s) found:\n", len(resp.Files))
	for _, file := range resp.Files {
		fmt.Println(file)
	}
}

func doGet(state *ClientState, filename string, log *zap.SugaredLogger) {
	resp, err := request(state, common.Message{
		Type:     common.TypeGet,
		Username: state.Username,
		Filename: filename,
	})
	if err != nil {
		return
	}
	if resp.Status != common.StatusOK {
		fmt.Printf("Download failed: %s\n", resp.Reason)
		return
	}

	if err := DownloadFile(resp.PeerIP, resp.PeerTCPPort, filename, state.ShareDir, log); err != nil {
		fmt.Printf("Download of %s failed: %v\n", filename, err)
		return
	}
	fmt.Printf("%s downloaded from %s.\n", filename, resp.PeerUsername)
}

// request wraps the FAIL-reason and timeout reporting shared by every
// command; command handlers only deal with OK payloads and type-specific
// failures.
func request(state *ClientState, m common.Message) (common.Message, error) {
	resp, err := state.Tracker.Request(m)
	if err != nil {
		fmt.Printf("%v.\n", err)
		return common.Message{}, err
	}
	if resp.Status == common.StatusFail && resp.Reason == "User not authenticated" {
		fmt.Println("Session expired; restart the client to re-authenticate.")
	}
	return resp, nil
}

func prompt(stdin *bufio.Scanner, text string) (string, bool) {
	fmt.Print(text)
	if !stdin.Scan() {
		return "", false
	}
	return strings.TrimSpace(stdin.Text()), true
}
