package till

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Console drives the till from a line-oriented terminal. Each line is either
// a barcode or one of the commands pay, cancel, total, langs and lang <name>.
type Console struct {
	service *Service
	in      io.Reader
	out     io.Writer
}

// NewConsole creates a Console reading scans from in and writing to out
func NewConsole(service *Service, in io.Reader, out io.Writer) *Console {
	return &Console{service: service, in: in, out: out}
}

// Run processes input until EOF, a quit command or ctx is done. Lines are
// read on a separate goroutine so cancellation does not wait for input.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
		}
	}()

	c.printf("%s\n", c.service.Text("scan_barcode"))
	for {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("reading input: %w", err)
				default:
					return nil
				}
			}
			if ctx.Err() != nil {
				return nil
			}
			if quit := c.handle(strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) printTotal() {
	c.printf("%s: %s\n", c.service.Text("pay"), c.service.FormatAmount(c.service.Total()))
}

// handle processes one input line and reports whether to stop
func (c *Console) handle(input string) bool {
	cmd, arg, _ := strings.Cut(input, " ")
	switch strings.ToLower(cmd) {
	case "":
		return false
	case "quit", "exit":
		return true
	case "total":
		c.printTotal()
	case "pay":
		sale, err := c.service.Checkout()
		if err != nil {
			c.printf("! %s\n", c.service.Message(err))
			return false
		}
		c.printf("%s: %s (%s)\n", c.service.Text("payment_complete"), c.service.FormatAmount(sale.TotalCents), sale.ID)
	case "cancel":
		c.service.Cancel()
		c.printf("%s\n", c.service.Text("order_cancelled"))
	case "langs":
		for _, lang := range c.service.Languages() {
			marker := " "
			if lang.Active {
				marker = "*"
			}
			c.printf("%s %s (%s)\n", marker, lang.Name, lang.Locale)
		}
	case "lang":
		if _, err := c.service.SetLanguage(strings.TrimSpace(arg)); err != nil {
			c.printf("! %s\n", c.service.Message(err))
			return false
		}
		c.printf("%s\n", c.service.Text("language_name"))
	default:
		if arg != "" {
			c.printf("! %s: %s\n", c.service.Text("unknown_command"), input)
			return false
		}
		c.scan(cmd)
	}
	return false
}

func (c *Console) scan(code string) {
	line, err := c.service.Scan(code)
	if err != nil {
		c.printf("! %s\n", c.service.Message(err))
		return
	}
	c.printf("+ %s  %s  %.3f%s  %s\n",
		line.Name,
		c.service.Text("currency_symbol")+fmt.Sprintf("%.2f", line.UnitPrice),
		line.Quantity,
		line.Unit,
		c.service.FormatAmount(line.SubtotalCents),
	)
	c.printTotal()
}
