package display

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/mattn/go-isatty"
)

const (
	DefaultPause = 100 * time.Millisecond
	clearSeq     = "\033[H\033[2J"
)

// Screen writes to a terminal or a plain stream. Clearing only happens when
// the output is a terminal.
type Screen struct {
	Out   io.Writer
	Pause time.Duration
	clear bool
	sleep func(time.Duration)
}

func NewScreen(out io.Writer, pause time.Duration) *Screen {
	return &Screen{
		Out:   out,
		Pause: pause,
		clear: isTerminal(out),
		sleep: time.Sleep,
	}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *Screen) Clear() {
	if s.clear {
		_, _ = io.WriteString(s.Out, clearSeq)
	}
}

func (s *Screen) Wait() {
	if s.Pause > 0 && s.sleep != nil {
		s.sleep(s.Pause)
	}
}

func (s *Screen) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.Out, format, args...)
}

// ReadChoice returns the first non-space character of the next input line,
// or 0 for a blank line.
func ReadChoice(in *bufio.Reader) (rune, error) {
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, err
	}
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	if line == "" {
		return 0, nil
	}
	return []rune(line)[0], nil
}
