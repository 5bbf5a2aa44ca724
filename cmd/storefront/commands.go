package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/bookbuddy/storefront/internal/app"
	"github.com/bookbuddy/storefront/internal/dashboard"
	"github.com/bookbuddy/storefront/pkg/money"
	"github.com/bookbuddy/storefront/pkg/types"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app.App, out io.Writer, args []string) error
}

var commands = map[string]command{
	"categories": {"list categories", runCategories},
	"products":   {"list products (-category, -band, -pages)", runProducts},
	"category":   {"list the products of a category slug", runCategory},
	"search":     {"search products by keyword", runSearch},
	"product":    {"show a product and similar products", runProduct},
	"cart":       {"show the cart and its total", runCart},
	"add":        {"add a product slug to the cart", runAdd},
	"remove":     {"remove a product id from the cart", runRemove},
	"clear":      {"empty the cart", runClear},
	"login":      {"sign in (-email, -password)", runLogin},
	"logout":     {"sign out", runLogout},
	"profile":    {"update the profile (-name, -phone, -address, -password)", runProfile},
	"orders":     {"list orders (all orders for admins with -all)", runOrders},
	"users":      {"list users (admin)", runUsers},
	"status":     {"set an order status (admin): status <order-id> <status>", runStatus},
	"checkout":   {"pay for the cart with a payment nonce (-nonce)", runCheckout},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func printProducts(out io.Writer, products []types.Product) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tNAME\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Slug, p.Name, money.FormatUSD(money.Sum(p.Price)))
	}
	return tw.Flush()
}

func runCategories(ctx context.Context, a *app.App, out io.Writer, _ []string) error {
	cats, err := a.API.Categories(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tNAME")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Slug, c.Name)
	}
	return tw.Flush()
}

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func runProducts(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("products")
	var checked listFlag
	fs.Var(&checked, "category", "category id to filter by (repeatable)")
	band := fs.Int("band", -1, "price band index (see -bands)")
	showBands := fs.Bool("bands", false, "list the price bands")
	pages := fs.Int("pages", 1, "pages to load while browsing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bands := types.PriceBands()
	if *showBands {
		for i, b := range bands {
			fmt.Fprintf(out, "%d  %s\n", i, b.Name)
		}
		return nil
	}

	c := a.Catalog
	if err := c.Init(ctx); err != nil {
		return err
	}
	for _, id := range checked {
		if err := c.ToggleCategory(ctx, id, true); err != nil {
			return err
		}
	}
	if *band >= 0 {
		if *band >= len(bands) {
			return fmt.Errorf("band must be between 0 and %d", len(bands)-1)
		}
		if err := c.SetPriceRange(ctx, bands[*band].Range); err != nil {
			return err
		}
	}
	for i := 1; i < *pages && c.CanLoadMore(); i++ {
		if err := c.LoadMore(ctx); err != nil {
			return err
		}
	}

	snap := c.Snapshot()
	if err := printProducts(out, snap.Products); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nmode=%s shown=%d total=%d", snap.Mode, len(snap.Products), snap.Total)
	if snap.CanLoadMore {
		fmt.Fprintf(out, " (more available with -pages %d)", snap.Page+1)
	}
	fmt.Fprintln(out)
	return nil
}

func runCategory(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: category <slug>")
	}
	if err := a.Category.Open(ctx, args[0]); err != nil {
		return err
	}
	products := a.Category.Products()
	fmt.Fprintf(out, "Category - %s (%d result(s))\n", a.Category.Category().Name, len(products))
	return printProducts(out, products)
}

func runSearch(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	if err := a.Search.Run(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	results := a.Search.Results()
	if len(results) == 0 {
		fmt.Fprintln(out, "No Products Found")
		return nil
	}
	fmt.Fprintf(out, "Found %d\n", len(results))
	return printProducts(out, results)
}

func runProduct(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: product <slug>")
	}
	if err := a.Details.Open(ctx, args[0]); err != nil {
		return err
	}
	p, _ := a.Details.Product()
	fmt.Fprintf(out, "%s\n%s\nPrice: %s\nCategory: %s\n\n", p.Name, p.Description, money.FormatUSD(money.Sum(p.Price)), p.Category.Name)
	related := a.Details.Related()
	if len(related) == 0 {
		fmt.Fprintln(out, "No Similar Products found")
		return nil
	}
	fmt.Fprintln(out, "Similar Products")
	return printProducts(out, related)
}

func runCart(_ context.Context, a *app.App, out io.Writer, _ []string) error {
	items := a.Cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(out, "Your Cart Is Empty")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.ID, item.Name, money.FormatUSD(money.Sum(item.Price)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d item(s), total %s\n", len(items), a.Cart.TotalDisplay())
	if sess := a.Sessions.Current(); sess.IsGuest() {
		fmt.Fprintln(out, "Please login to checkout")
	}
	return nil
}

func runAdd(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: add <product-slug>")
	}
	p, err := a.API.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.AddToCart(ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(out, "added %s, cart total %s\n", p.Name, a.Cart.TotalDisplay())
	return nil
}

func runRemove(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <product-id>")
	}
	if err := a.Cart.Remove(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d item(s), total %s\n", a.Cart.Len(), a.Cart.TotalDisplay())
	return nil
}

func runClear(ctx context.Context, a *app.App, out io.Writer, _ []string) error {
	if err := a.Cart.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "cart cleared")
	return nil
}

func runLogin(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.Login(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Fprintf(out, "signed in as %s, dashboard %s\n", a.Sessions.Current().User.Name, a.DashboardRoute())
	return nil
}

func runLogout(ctx context.Context, a *app.App, out io.Writer, _ []string) error {
	if err := a.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "signed out")
	return nil
}

func runProfile(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	form := a.Dashboard.ProfileForm()
	fs := newFlags("profile")
	fs.StringVar(&form.Name, "name", form.Name, "display name")
	fs.StringVar(&form.Phone, "phone", form.Phone, "phone number")
	fs.StringVar(&form.Address, "address", form.Address, "delivery address")
	fs.StringVar(&form.Password, "password", "", "new password, at least 6 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	updated, err := a.Dashboard.UpdateProfile(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "profile saved for %s (%s)\n", updated.Name, updated.Address)
	return nil
}

func runOrders(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("orders")
	all := fs.Bool("all", false, "list every order (admin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var (
		orders []types.Order
		err    error
	)
	if *all {
		orders, err = a.Dashboard.AllOrders(ctx)
	} else {
		orders, err = a.Dashboard.MyOrders(ctx)
	}
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders found")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tBUYER\tPAYMENT\tITEMS")
	for _, o := range orders {
		payment := "Failed"
		if o.Payment.Success {
			payment = "Success"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", o.ID, o.Status.Label(), o.Buyer.Name, payment, len(o.Products))
	}
	return tw.Flush()
}

func runUsers(ctx context.Context, a *app.App, out io.Writer, _ []string) error {
	dir, err := a.Dashboard.Users(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range dir.Users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d admin(s), %d customer(s)\n", dir.Admins, dir.Customers)
	return nil
}

func runStatus(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: status <order-id> <status>")
	}
	if err := a.Dashboard.SetOrderStatus(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(out, "order %s updated, %d order(s) on the board\n", args[0], len(a.Dashboard.Orders()))
	return nil
}

// staticNonce stands in for the payment widget: the nonce comes from the
// gateway's own tooling or sandbox test values.
type staticNonce string

func (n staticNonce) RequestPaymentMethod(context.Context) (string, error) {
	if n == "" {
		return "", errors.New("payment nonce is required")
	}
	return string(n), nil
}

func runCheckout(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlags("checkout")
	nonce := fs.String("nonce", "", "payment method nonce")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.Checkout.Prepare(ctx); err != nil {
		return err
	}
	if *nonce != "" {
		a.Checkout.AttachInstance(staticNonce(*nonce))
	}
	if r := a.Checkout.Readiness(); !r.Ready() {
		return fmt.Errorf("checkout unavailable: %s", strings.Join(r.Reasons(), ", "))
	}
	total := a.Cart.TotalDisplay()
	if err := a.Checkout.Submit(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "paid %s, see %s\n", total, dashboardOrdersHint(a))
	return nil
}

func dashboardOrdersHint(a *app.App) string {
	for _, item := range dashboard.Menu(a.Sessions.Current().Role()) {
		if item.Label == "Orders" {
			return item.Route
		}
	}
	return a.DashboardRoute()
}
