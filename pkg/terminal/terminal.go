package terminal

import (
	"errors"
	"fmt"
	"io"
	"memdump/service"
	"memdump/utils"
	"os"
	"os/signal"
	"os/user"
	"path"
	"strings"
	"syscall"

	"github.com/derekparker/trie"
	"github.com/go-delve/liner"
)

const (
	prompt             = "(memdump) "
	dataDir            = ".memdump"
	historyFile string = ".memdump_history"
)

type Term struct {
	client      service.Client
	prompt      string
	line        *liner.State
	cmds        *Commands
	historyFile *os.File
	stdout      *transcriptWriter
	color       bool
}

func New(client service.Client) *Term {
	t := newTerm(client)
	t.line = liner.NewLiner()
	return t
}

func newTerm(client service.Client) *Term {
	w, color := utils.Stdout()
	return &Term{
		client: client,
		prompt: prompt,
		stdout: &transcriptWriter{pw: newPagingWriter(w)},
		cmds:   NewCommands(client),
		color:  color,
	}
}

func (t *Term) sigintGuard(ch <-chan os.Signal) {
	for range ch {
		fmt.Fprintf(t.stdout, "received SIGINT, the target is never stopped; type 'exit' to quit\n")
		t.stdout.Flush()
	}
}

func (t *Term) Run() error {
	defer t.Close()

	var (
		err error
	)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	defer signal.Stop(ch)
	go t.sigintGuard(ch)

	cmds := trie.New()
	for _, cmd := range t.cmds.cmds {
		for _, alias := range cmd.aliases {
			cmds.Add(alias, nil)
		}
	}

	t.line.SetCompleter(func(line string) (c []string) {
		c = cmds.PrefixSearch(line)
		return
	})

	fullHistory := path.Join(getUserHomeDir(), dataDir, historyFile)

	t.historyFile, err = os.OpenFile(fullHistory, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("Unable to open history file: %v. History will not be saved for this session.\n", err)
			return err
		}
		if err := os.MkdirAll(path.Dir(fullHistory), 0755); err != nil {
			return fmt.Errorf("create parent dir failed: %v", err)
		}
		if t.historyFile, err = os.OpenFile(fullHistory, os.O_CREATE|os.O_RDWR, 0600); err != nil {
			return err
		}
	}

	if _, err = t.line.ReadHistory(t.historyFile); err != nil {
		fmt.Printf("Unable to read history file %s: %v\n", fullHistory, err)
		return err
	}

	fmt.Println("Type 'help' for list of commands.")

	for {
		cmd, err := t.promptForInput()
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(t.stdout, "exit")
				t.stdout.Flush()
				return t.handleExit()
			}
			return errors.New("prompt for input failed")
		}
		t.stdout.Echo(t.prompt + cmd + "\n")

		if strings.TrimSpace(cmd) == "" {
			continue
		}

		if err = t.cmds.Call(cmd, t); err != nil {
			var exitErr ExitRequestError
			if errors.As(err, &exitErr) {
				t.stdout.Flush()
				return t.handleExit()
			}

			t.RedirectTo(os.Stderr)
			fmt.Fprintf(t.stdout, "Command failed: %s\n", err)
		}

		t.stdout.Flush()
		t.stdout.pw.Reset()
	}
}

func (t *Term) Close() {
	if t.line != nil {
		t.line.Close()
	}
	if err := t.stdout.CloseTranscript(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing transcript file: %v\n", err)
	}
}

func getUserHomeDir() string {
	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return userHomeDir
}

func (t *Term) promptForInput() (string, error) {
	l, err := t.line.Prompt(t.prompt)
	if err != nil {
		return "", err
	}

	l = strings.TrimSuffix(l, "\n")
	if l != "" {
		t.line.AppendHistory(l)
	}

	return l, nil
}

func (t *Term) handleExit() error {
	if t.historyFile != nil {
		if _, err := t.line.WriteHistory(t.historyFile); err != nil {
			fmt.Println("readline history error:", err)
			return err
		}
		if err := t.historyFile.Close(); err != nil {
			fmt.Printf("error closing history file: %s\n", err)
			return err
		}
	}

	return nil
}

// RedirectTo redirects the output of this terminal to the specified writer.
func (t *Term) RedirectTo(w io.Writer) {
	t.stdout.Flush()
	t.stdout.pw.w = w
}
