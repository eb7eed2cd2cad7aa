package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/georgemunganga/printa-pos/internal/modules/pos"
	"github.com/georgemunganga/printa-pos/internal/modules/register"
	"github.com/georgemunganga/printa-pos/internal/modules/tenant"
)

const help = `commands:
  stores                 list stores and branches
  store <id>             switch store (lands on its first branch)
  branch <id>            switch branch within the store
  products [query]       list products, optionally searching by name
  category <id>          filter products by category
  add <productId>        add one unit to the cart
  qty <productId> <n>    change a line's quantity by n
  rm <productId>         remove a line
  cart                   show the cart
  checkout               record the sale
  history                show sales for this branch
  void <id> [reason]     void a sale
  quit`

type repl struct {
	session   *register.Session
	scope     *tenant.Context
	directory tenant.Directory
	in        io.Reader
	out       io.Writer
}

func (r *repl) run(ctx context.Context) {
	sc := bufio.NewScanner(r.in)
	r.prompt()
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 {
			if fields[0] == "quit" || fields[0] == "exit" {
				return
			}
			if err := r.exec(ctx, fields[0], fields[1:]); err != nil {
				fmt.Fprintln(r.out, "error:", err)
			}
		}
		r.prompt()
	}
}

func (r *repl) prompt() {
	s := r.scope.Scope()
	fmt.Fprintf(r.out, "%s/%s> ", s.Store.ID, s.Branch.ID)
}

func (r *repl) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(r.out, help)
	case "stores":
		return r.stores(ctx)
	case "store":
		if len(args) != 1 {
			return errors.New("usage: store <id>")
		}
		store, err := r.directory.Store(ctx, args[0])
		if err != nil {
			return err
		}
		return r.scope.SelectStore(store)
	case "branch":
		if len(args) != 1 {
			return errors.New("usage: branch <id>")
		}
		for _, b := range r.scope.Scope().Store.Branches {
			if b.ID == args[0] {
				return r.scope.SelectBranch(b)
			}
		}
		return tenant.ErrBranchNotInStore
	case "products":
		r.session.SetSearch(strings.Join(args, " "))
		r.products()
	case "category":
		if len(args) != 1 {
			return errors.New("usage: category <id>")
		}
		return r.session.SetCategory(args[0])
	case "add":
		if len(args) != 1 {
			return errors.New("usage: add <productId>")
		}
		if err := r.session.AddProduct(args[0]); err != nil {
			return err
		}
		r.cart()
	case "qty":
		if len(args) != 2 {
			return errors.New("usage: qty <productId> <delta>")
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid delta %q", args[1])
		}
		r.session.AdjustQuantity(args[0], delta)
		r.cart()
	case "rm":
		if len(args) != 1 {
			return errors.New("usage: rm <productId>")
		}
		r.session.RemoveLine(args[0])
		r.cart()
	case "cart":
		r.cart()
	case "checkout":
		t, err := r.session.Checkout(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "recorded %s total %s\n", t.ID, t.Total.StringFixed(2))
	case "history":
		r.session.Wait()
		r.history()
	case "void":
		if len(args) < 1 {
			return errors.New("usage: void <id> [reason]")
		}
		if err := r.session.Void(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "voided", args[0])
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (r *repl) stores(ctx context.Context) error {
	stores, err := r.directory.Stores(ctx)
	if err != nil {
		return err
	}
	current := r.scope.Scope()
	for _, s := range stores {
		fmt.Fprintf(r.out, "%s  %s\n", s.ID, s.Label)
		for _, b := range s.Branches {
			mark := " "
			if s.ID == current.Store.ID && b.ID == current.Branch.ID {
				mark = "*"
			}
			fmt.Fprintf(r.out, "  %s %s  %s\n", mark, b.ID, b.Label)
		}
	}
	return nil
}

func (r *repl) products() {
	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY\n")
	for _, p := range r.session.Products() {
		stock := strconv.Itoa(p.Stock)
		if p.LowStock() {
			stock += " low"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), stock, p.Category)
	}
	w.Flush()
	fmt.Fprintf(r.out, "category: %s\n", r.session.Category())
}

func (r *repl) cart() {
	c := r.session.Cart()
	if c.IsEmpty() {
		fmt.Fprintln(r.out, "cart is empty")
		return
	}
	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	for _, l := range c.Lines() {
		fmt.Fprintf(w, "%s\t%d x %s\t%s\n", l.Product.Name, l.Quantity, l.Product.Price.StringFixed(2), l.Amount().StringFixed(2))
	}
	fmt.Fprintf(w, "subtotal\t\t%s\n", c.Subtotal().StringFixed(2))
	fmt.Fprintf(w, "discount\t\t%s\n", c.Discount().StringFixed(2))
	fmt.Fprintf(w, "total\t\t%s\n", c.Total().StringFixed(2))
	w.Flush()
}

func (r *repl) history() {
	st := r.session.History()
	if st.LastError != "" {
		fmt.Fprintln(r.out, "last error:", st.LastError)
	}
	if len(st.Records) == 0 {
		fmt.Fprintln(r.out, "no sales")
		return
	}
	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTIME\tITEMS\tTOTAL\tSTATUS\n")
	for _, t := range st.Records {
		status := string(t.Status)
		if t.Status == pos.StatusVoided && t.VoidReason != "" {
			status += " (" + t.VoidReason + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			t.ID,
			time.UnixMilli(t.Timestamp).Format("2006-01-02 15:04"),
			len(t.Items),
			t.Total.StringFixed(2),
			status)
	}
	w.Flush()
}
