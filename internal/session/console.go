package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Menu choices.
const (
	ChoiceViewProducts = 1
	ChoiceAddToCart    = 2
	ChoiceViewCart     = 3
	ChoiceCheckout     = 4
	ChoiceExit         = 5
)

const farewell = "Thank you for shopping with us!"

// ErrInputClosed is returned when the console input ends before a prompt is answered.
var ErrInputClosed = errors.New("session: input closed")

type inputLine struct {
	text string
	err  error
}

// Console drives a Session from line-oriented text input. Input is read on a
// background goroutine so that a prompt can be abandoned when its context is
// cancelled.
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	once  sync.Once
	lines chan inputLine
}

// NewConsole reads answers from in and writes prompts and results to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewScanner(in), out: out, lines: make(chan inputLine)}
}

// PromptCustomer asks for the customer's name and opening balance. Blank names
// and unreadable or negative balances are asked again.
func (c *Console) PromptCustomer(ctx context.Context) (string, pricing.Money, error) {
	name, err := c.PromptName(ctx)
	if err != nil {
		return "", 0, err
	}
	balance, err := c.PromptBalance(ctx)
	if err != nil {
		return "", 0, err
	}
	return name, balance, nil
}

// PromptName asks for the customer's name until a non-blank one is entered.
func (c *Console) PromptName(ctx context.Context) (string, error) {
	for {
		line, err := c.ask(ctx, "Enter your name: ")
		if err != nil {
			return "", err
		}
		if name := strings.TrimSpace(line); name != "" {
			return name, nil
		}
	}
}

// PromptBalance asks for an opening balance until a valid amount is entered.
func (c *Console) PromptBalance(ctx context.Context) (pricing.Money, error) {
	for {
		line, err := c.ask(ctx, "Enter your balance: ")
		if err != nil {
			return 0, err
		}
		balance, err := pricing.Parse(line)
		if err == nil {
			return balance, nil
		}
		fmt.Fprintln(c.out, "Invalid balance, please enter an amount such as 1500.00")
	}
}

// Run shows the menu until the user exits, the input ends or ctx is done.
// Ending the input is treated like choosing Exit. Cancelling ctx returns
// ctx.Err() even while a prompt is waiting for input.
func (c *Console) Run(ctx context.Context, s *Session) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := c.ask(ctx, "\n===== MENU =====\n" +
			"1. View Products\n" +
			"2. Add to Cart\n" +
			"3. View Cart\n" +
			"4. Checkout\n" +
			"5. Exit\n" +
			"Choose an option: ")
		if errors.Is(err, ErrInputClosed) {
			fmt.Fprintln(c.out, "\n"+farewell)
			return nil
		}
		if err != nil {
			return err
		}

		switch common.AtoiDefault(line, -1) {
		case ChoiceViewProducts:
			RenderProducts(c.out, s.Products())
		case ChoiceAddToCart:
			if err := c.addToCart(ctx, s); err != nil {
				if errors.Is(err, ErrInputClosed) {
					fmt.Fprintln(c.out, "\n"+farewell)
					return nil
				}
				return err
			}
		case ChoiceViewCart:
			RenderCart(c.out, s.Cart())
		case ChoiceCheckout:
			receipt, err := s.Checkout(ctx)
			if err != nil {
				c.report(err)
				continue
			}
			RenderReceipt(c.out, receipt)
		case ChoiceExit:
			fmt.Fprintln(c.out, farewell)
			return nil
		default:
			fmt.Fprintln(c.out, "Invalid choice")
		}
	}
}

func (c *Console) addToCart(ctx context.Context, s *Session) error {
	products := s.Products()
	RenderProductNames(c.out, products)

	line, err := c.ask(ctx, "Select product number: ")
	if err != nil {
		return err
	}
	position, err := common.Atoi(line)
	if err != nil || position < 1 || position > len(products) {
		fmt.Fprintln(c.out, "Invalid product number")
		return nil
	}

	line, err = c.ask(ctx, "Enter quantity: ")
	if err != nil {
		return err
	}
	quantity, err := common.Atoi(line)
	if err != nil {
		c.report(err)
		return nil
	}

	added, err := s.AddToCart(position, quantity)
	if err != nil {
		c.report(err)
		return nil
	}
	fmt.Fprintf(c.out, "%d %s(s) added to cart\n", added.Quantity, added.Product)
	return nil
}

func (c *Console) report(err error) {
	fmt.Fprintln(c.out, AppError(err).Message)
}

func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	c.once.Do(func() { go c.read() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", ErrInputClosed
		}
		return l.text, l.err
	}
}

// read feeds c.lines until the input ends. An abandoned prompt leaves the
// goroutine parked on its next send.
func (c *Console) read() {
	defer close(c.lines)
	for c.in.Scan() {
		c.lines <- inputLine{text: c.in.Text()}
	}
	if err := c.in.Err(); err != nil {
		c.lines <- inputLine{err: fmt.Errorf("read input: %w", err)}
	}
}
