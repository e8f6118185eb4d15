package cli

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
	"github.com/temoto/inkmenu/log2"
)

// MainLoop feeds exec with interactive prompt lines on a tty, stdin lines otherwise.
// Returns on end of input. onSignal runs on termination signal.
func MainLoop(tag string, log *log2.Log, onSignal func(), exec func(line string), complete prompt.Completer) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer signal.Stop(signalCh)
	go func() {
		for s := range signalCh {
			log.Infof("%s signal=%s", tag, s.String())
			onSignal()
		}
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		// TODO OptionHistory from file
		prompt.New(exec, complete,
			prompt.OptionPrefix(tag+"> "),
			prompt.OptionTitle(tag),
		).Run()
		return
	}
	if err := ReadLines(os.Stdin, exec); err != nil {
		log.Error(err)
	}
}

// ReadLines calls exec for each non-empty trimmed line.
func ReadLines(r io.Reader, exec func(line string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			exec(line)
		}
	}
	return scanner.Err()
}
