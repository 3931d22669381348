package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ecomt/storefront/internal/client/address"
	"github.com/ecomt/storefront/internal/client/apiclient"
	"github.com/ecomt/storefront/internal/client/catalog"
	"github.com/ecomt/storefront/internal/client/debounce"
)

const searchDelay = 300 * time.Millisecond

var money = message.NewPrinter(language.Vietnamese)

// formatVND renders an amount as whole dong with grouped digits.
func formatVND(d decimal.Decimal) string {
	return money.Sprintf("%d ₫", d.Round(0).IntPart())
}

func newFlags(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) password(value string) (string, error) {
	if value != "" {
		return value, nil
	}
	pw, err := a.readLine("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login", a)
	email := fs.String("email", "", "Account email")
	pw := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errUsage
	}
	password, err := a.password(*pw)
	if err != nil {
		return err
	}

	user, err := a.session.Login(ctx, *email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register", a)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Account email")
	pw := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		return errUsage
	}
	password, err := a.password(*pw)
	if err != nil {
		return err
	}

	user, err := a.session.Register(ctx, *name, *email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created. Signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	// a stored token is enough to revoke it server-side
	if _, err := a.session.Rehydrate(ctx); err != nil {
		a.log.Debug("No valid session to revoke")
	}
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	user := a.session.User()
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\nid:   %s\n", user.Name, user.Email, user.Role, user.ID)
	return nil
}

func cmdProducts(ctx context.Context, a *app, args []string) error {
	fs := newFlags("products", a)
	category := fs.String("category", "", "Category ID")
	brand := fs.String("brand", "", "Brand ID")
	minPrice := fs.String("min", "", "Minimum price")
	maxPrice := fs.String("max", "", "Maximum price")
	name := fs.String("name", "", "Name contains")
	sortBy := fs.String("sort", "", "Sort by name, price or createdAt")
	order := fs.String("order", "", "asc or desc")
	page := fs.Int("page", 0, "Page number")
	limit := fs.Int("limit", 20, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filters := catalog.ProductFilters{
		Name:      *name,
		SortBy:    *sortBy,
		SortOrder: *order,
		Page:      *page,
		Limit:     *limit,
	}
	var err error
	if filters.CategoryID, err = parseOptionalUUID("category", *category); err != nil {
		return err
	}
	if filters.BrandID, err = parseOptionalUUID("brand", *brand); err != nil {
		return err
	}
	if filters.MinPrice, err = parseOptionalDecimal("min", *minPrice); err != nil {
		return err
	}
	if filters.MaxPrice, err = parseOptionalDecimal("max", *maxPrice); err != nil {
		return err
	}

	result, err := a.catalog.Filter(ctx, filters)
	if err != nil {
		return err
	}
	a.printProducts(result.Products)
	fmt.Fprintf(a.out, "page %d/%d, %d products\n", result.Meta.Page, result.Meta.TotalPages, result.Meta.Total)
	return nil
}

func cmdSearch(ctx context.Context, a *app, args []string) error {
	fs := newFlags("search", a)
	interactive := fs.Bool("i", false, "Read queries from stdin, searching as you type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*interactive {
		q := strings.Join(fs.Args(), " ")
		if strings.TrimSpace(q) == "" {
			return errUsage
		}
		products, err := a.catalog.Search(ctx, q)
		if err != nil {
			return err
		}
		a.printProducts(products)
		return nil
	}
	return a.searchInteractive(ctx, a.in)
}

// searchInteractive runs one search per quiet period over the lines of in.
func (a *app) searchInteractive(ctx context.Context, in io.Reader) error {
	results := make(chan string, 1)
	searches := debounce.New(searchDelay, func(q string) {
		// keep only the newest query queued
		for {
			select {
			case results <- q:
				return
			default:
			}
			select {
			case <-results:
			default:
			}
		}
	})
	defer searches.Stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				searches.Flush()
				select {
				case q := <-results:
					a.runSearch(ctx, q)
				default:
				}
				return nil
			}
			searches.Trigger(line)
		case q := <-results:
			a.runSearch(ctx, q)
		}
	}
}

func (a *app) runSearch(ctx context.Context, q string) {
	products, err := a.catalog.Search(ctx, q)
	if err != nil {
		return
	}
	fmt.Fprintf(a.out, "== %q: %d results\n", strings.TrimSpace(q), len(products))
	a.printProducts(products)
}

func cmdCart(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		c, err := a.cart.Refresh(ctx)
		if err != nil {
			return err
		}
		a.printCart(c)
		return nil
	}

	var err error
	switch args[0] {
	case "add":
		if len(args) < 2 {
			return errUsage
		}
		qty := 1
		if len(args) > 2 {
			if qty, err = strconv.Atoi(args[2]); err != nil || qty < 1 {
				return fmt.Errorf("invalid quantity %q", args[2])
			}
		}
		productID, rerr := a.resolveProduct(ctx, args[1])
		if rerr != nil {
			return rerr
		}
		_, err = a.cart.Add(ctx, productID, qty)
	case "update":
		if len(args) < 3 {
			return errUsage
		}
		itemID, perr := uuid.Parse(args[1])
		if perr != nil {
			return fmt.Errorf("invalid item id %q", args[1])
		}
		qty, perr := strconv.Atoi(args[2])
		if perr != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		_, err = a.cart.Update(ctx, itemID, qty)
	case "remove":
		if len(args) < 2 {
			return errUsage
		}
		itemID, perr := uuid.Parse(args[1])
		if perr != nil {
			return fmt.Errorf("invalid item id %q", args[1])
		}
		_, err = a.cart.Remove(ctx, itemID)
	case "clear":
		err = a.cart.Clear(ctx)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	a.printCart(a.cart.Snapshot())
	return nil
}

// resolveProduct accepts a product ID or slug.
func (a *app) resolveProduct(ctx context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	p, err := a.catalog.GetBySlug(ctx, ref)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func cmdCheckout(ctx context.Context, a *app, args []string) error {
	fs := newFlags("checkout", a)
	street := fs.String("address", "", "Street address")
	provinceCode := fs.Int("province", 0, "Province code (see `shopctl provinces`)")
	wardCode := fs.Int("ward", 0, "Ward code (see `shopctl wards <province>`)")
	phone := fs.String("phone", "", "Contact phone")
	payment := fs.String("payment", apiclient.PaymentCOD, "COD, VNPAY or SEPAY")
	fee := fs.String("fee", "", "Shipping fee")
	notes := fs.String("notes", "", "Order notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *street == "" || *provinceCode == 0 || *wardCode == 0 || *phone == "" {
		return errUsage
	}

	c, err := a.cart.Refresh(ctx)
	if err != nil {
		return err
	}
	if c == nil || len(c.Items) == 0 {
		return errors.New("your cart is empty")
	}

	selector := address.NewSelector(a.address)
	if _, err := selector.LoadProvinces(ctx); err != nil {
		return err
	}
	if _, err := selector.SelectProvince(ctx, *provinceCode); err != nil {
		return err
	}
	if err := selector.SelectWard(*wardCode); err != nil {
		return err
	}
	sel := selector.Selection()

	req := apiclient.CreateOrderRequest{
		ShippingAddress:  *street,
		ShippingCity:     sel.Province,
		ShippingDistrict: sel.District,
		ShippingWard:     sel.Ward,
		ShippingPhone:    *phone,
		PaymentMethod:    strings.ToUpper(*payment),
		Notes:            *notes,
	}
	if req.ShippingFee, err = parseOptionalDecimal("fee", *fee); err != nil {
		return err
	}

	order, err := a.api.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}
	a.cart.Reset()

	fmt.Fprintf(a.out, "Order %s placed: %d items, total %s (%s, payment %s)\n",
		order.ID, order.ItemCount, formatVND(order.FinalTotal), order.Status, order.PaymentStatus)
	fmt.Fprintf(a.out, "Ship to: %s, %s, %s, %s\n", order.ShippingAddress, order.ShippingWard, order.ShippingDistrict, order.ShippingCity)
	return nil
}

func cmdOrders(ctx context.Context, a *app, args []string) error {
	if len(args) > 0 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}
		order, err := a.api.Order(ctx, id)
		if err != nil {
			return err
		}
		a.printOrder(order)
		return nil
	}

	orders, err := a.api.Orders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders yet")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSTATUS\tPAYMENT\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			o.ID, o.CreatedAt.Format("2006-01-02"), o.Status, o.PaymentStatus, o.ItemCount, formatVND(o.FinalTotal))
	}
	return w.Flush()
}

func cmdProvinces(ctx context.Context, a *app, _ []string) error {
	provinces, err := address.NewSelector(a.address).LoadProvinces(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME")
	for _, p := range provinces {
		fmt.Fprintf(w, "%d\t%s\n", p.Code, p.Name)
	}
	return w.Flush()
}

func cmdWards(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	code, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid province code %q", args[0])
	}
	wards, err := address.NewSelector(a.address).SelectProvince(ctx, code)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tWARD")
	for _, ward := range wards {
		fmt.Fprintf(w, "%d\t%s\n", ward.Code, ward.Label())
	}
	return w.Flush()
}

func cmdChat(ctx context.Context, a *app, args []string) error {
	fs := newFlags("chat", a)
	conversation := fs.String("conversation", "", "Continue a conversation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	msg := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if msg == "" {
		return errUsage
	}

	reply, err := a.api.Chat(ctx, apiclient.ChatRequest{Message: msg, ConversationID: *conversation})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, reply.Message)
	for _, p := range reply.SuggestedProducts {
		fmt.Fprintf(a.out, "  - %s (%s)\n", p.Name, p.Price)
	}
	fmt.Fprintf(a.out, "[conversation %s]\n", reply.ConversationID)
	return nil
}

func (a *app) printProducts(products []apiclient.Product) {
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products found")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY\tBRAND")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Name, formatVND(catalog.EffectivePrice(p)), p.StockQuantity, p.CategoryName, p.BrandName)
	}
	_ = w.Flush()
}

func (a *app) printCart(c *apiclient.Cart) {
	if c == nil || len(c.Items) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRODUCT\tQTY\tUNIT\tSUBTOTAL")
	for _, item := range c.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			item.ID, item.Product.Name, item.Quantity, formatVND(item.UnitPrice), formatVND(item.Subtotal))
	}
	_ = w.Flush()
	fmt.Fprintf(a.out, "%d items, total %s\n", a.cart.ItemCount(), formatVND(a.cart.Total()))
}

func (a *app) printOrder(o apiclient.Order) {
	fmt.Fprintf(a.out, "Order %s\nstatus:  %s\npayment: %s (%s)\nplaced:  %s\n",
		o.ID, o.Status, o.PaymentMethod, o.PaymentStatus, o.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(a.out, "ship to: %s, %s, %s, %s (%s)\n",
		o.ShippingAddress, o.ShippingWard, o.ShippingDistrict, o.ShippingCity, o.ShippingPhone)
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, d := range o.OrderDetails {
		fmt.Fprintf(w, "  %s\tx%d\t%s\n", d.ProductName, d.Quantity, formatVND(d.Subtotal))
	}
	_ = w.Flush()
	fmt.Fprintf(a.out, "shipping %s, discount %s, total %s\n",
		formatVND(o.ShippingFee), formatVND(o.DiscountAmount), formatVND(o.FinalTotal))
}

func parseOptionalUUID(name, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", name, s)
	}
	return id, nil
}

func parseOptionalDecimal(name, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, s)
	}
	return &d, nil
}
