package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer はCLIの出力を色付きで書き込みます
// NO_COLOR が設定されている場合、またはTTYでない場合は色を付けません
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

// New は新しいPrinterを作成します
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{out: out, errOut: errOut}
}

// Success は成功メッセージを緑色で出力します
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Info は通常のメッセージを出力します
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

// Field は項目名を強調して値を出力します
func (p *Printer) Field(name string, value any) {
	cyan.Fprintf(p.out, "  %-16s", name+":")
	fmt.Fprintf(p.out, " %v\n", value)
}

// Warning は警告メッセージを黄色で出力します
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.errOut, "⚠️  %s\n", fmt.Sprintf(format, a...))
}

// Error はエラーの見出しと説明を出力し、cobraに返すエラーを作成します
func (p *Printer) Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(p.errOut, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(p.errOut, "\n%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(p.errOut)
		for _, s := range suggestions {
			fmt.Fprintf(p.errOut, "  - %s\n", s)
		}
	}
	return fmt.Errorf("%s", title)
}
