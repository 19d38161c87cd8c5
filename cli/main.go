package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

// Model defines the application state
type Model struct {
	mainMenu     list.Model
	orderList    list.Model
	payoutView   table.Model
	payoutWeek   WeekWindow
	orderDetail  Order
	usernameIn   textinput.Model
	passwordIn   textinput.Model
	spinner      spinner.Model
	client       *ApiClient
	restaurantID uint
	currentView  string
	status       string
	error        string
}

// item represents a list item
type item struct {
	title, desc string
}

// FilterValue implements list.Item interface
func (i item) FilterValue() string { return i.title }

// Title implements list.Item interface
func (i item) Title() string { return i.title }

// Description implements list.Item interface
func (i item) Description() string { return i.desc }

// Initialize the model
func initialModel() Model {
	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	// Initialize main menu items
	items := []list.Item{
		item{title: "Order Queue", desc: "View and advance today's orders"},
		item{title: "Payouts", desc: "View this week's settlement"},
		item{title: "Exit", desc: "Exit the application"},
	}

	// Initialize main menu
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Foodcourt Kitchen CLI"

	// Initialize order list view
	orderList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	orderList.Title = "Order Queue"

	// Initialize payout table
	columns := []table.Column{
		{Title: "Order", Width: 10},
		{Title: "Earning", Width: 15},
		{Title: "Platform Fee", Width: 15},
	}
	payoutTable := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	// Initialize login inputs
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	username.CharLimit = 64
	username.Width = 30

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 64
	password.Width = 30

	restaurantID := uint(1)
	if raw := os.Getenv("FOODCOURT_RESTAURANT_ID"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			restaurantID = uint(parsed)
		}
	}

	return Model{
		mainMenu:     mainMenu,
		orderList:    orderList,
		payoutView:   payoutTable,
		usernameIn:   username,
		passwordIn:   password,
		spinner:      s,
		client:       NewApiClient(),
		restaurantID: restaurantID,
		currentView:  "login",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentView != "login" {
				return m, tea.Quit
			}
		case "enter":
			switch m.currentView {
			case "login":
				if m.usernameIn.Focused() {
					m.usernameIn.Blur()
					m.passwordIn.Focus()
					return m, nil
				}
				return m, login(m.client, m.usernameIn.Value(), m.passwordIn.Value())
			case "main":
				selected, ok := m.mainMenu.SelectedItem().(item)
				if ok {
					switch selected.title {
					case "Exit":
						return m, tea.Quit
					case "Order Queue":
						m.currentView = "orders"
						return m, fetchOrders(m.client, m.restaurantID)
					case "Payouts":
						m.currentView = "payouts"
						return m, fetchPayouts(m.client, m.restaurantID)
					}
				}
			case "orders":
				if selected, ok := m.orderList.SelectedItem().(orderItem); ok {
					m.currentView = "order_detail"
					return m, fetchOrderDetails(m.client, selected.id)
				}
			case "order_detail":
				m.currentView = "orders"
				return m, fetchOrders(m.client, m.restaurantID)
			}
		case "esc":
			if m.currentView == "order_detail" {
				m.currentView = "orders"
				return m, fetchOrders(m.client, m.restaurantID)
			} else if m.currentView != "main" && m.currentView != "login" {
				m.currentView = "main"
			}
		case "a":
			if m.currentView == "order_detail" {
				return m, advanceOrder(m.client, m.orderDetail)
			}
		case "d":
			if m.currentView == "order_detail" {
				return m, toggleDelay(m.client, m.orderDetail)
			}
		case "r":
			if m.currentView == "orders" {
				return m, fetchOrders(m.client, m.restaurantID)
			}
		}
	case loginMsg:
		m.currentView = "main"
		m.error = ""
		return m, nil
	case ordersMsg:
		m.orderList.SetItems(convertOrdersToItems(msg.orders))
		return m, nil
	case orderDetailMsg:
		m.orderDetail = msg.order
		return m, nil
	case payoutsMsg:
		m.payoutWeek = msg.page.Week
		m.payoutView.SetRows(convertPayoutsToRows(msg.page.Payouts))
		return m, nil
	case errorMsg:
		m.error = msg.err
		return m, nil
	case confirmMsg:
		m.error = ""
		m.status = msg.message
		if m.currentView == "order_detail" {
			return m, fetchOrderDetails(m.client, m.orderDetail.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "login":
		if m.usernameIn.Focused() {
			m.usernameIn, cmd = m.usernameIn.Update(msg)
		} else {
			m.passwordIn, cmd = m.passwordIn.Update(msg)
		}
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "orders":
		m.orderList, cmd = m.orderList.Update(msg)
	case "payouts":
		m.payoutView, cmd = m.payoutView.Update(msg)
	}

	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	switch m.currentView {
	case "login":
		view := titleStyle.Render("Foodcourt Kitchen CLI") + "\n\n"
		view += "Sign in with your cooker account\n\n"
		view += m.usernameIn.View() + "\n"
		view += m.passwordIn.View() + "\n"
		view += "\nPress 'enter' to continue\n"
		if m.error != "" {
			view += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(view)
	case "main":
		return docStyle.Render(m.mainMenu.View())
	case "orders":
		help := "\nPress 'enter' to view details, 'r' to refresh, 'esc' to go back\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(titleStyle.Render("Order Queue") + "\n\n" + m.orderList.View() + help)
	case "order_detail":
		view := orderDetailView(m.orderDetail)
		if m.status != "" {
			view += "\n" + successStyle.Render(m.status)
		}
		if m.error != "" {
			view += "\n" + errorStyle.Render(m.error)
		}
		return docStyle.Render(view)
	case "payouts":
		header := titleStyle.Render("Payouts") + "\n\n"
		if m.payoutWeek.FormattedStart != "" {
			header += infoStyle.Render(fmt.Sprintf("Week %s - %s", m.payoutWeek.FormattedStart, m.payoutWeek.FormattedEnd)) + "\n\n"
		}
		help := "\nPress 'esc' to go back\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(header + m.payoutView.View() + help)
	default:
		return "Loading..."
	}
}

// Custom message types for the tea.Model
type loginMsg struct{}

type ordersMsg struct {
	orders []Order
}

type orderDetailMsg struct {
	order Order
}

type payoutsMsg struct {
	page *PayoutPage
}

type errorMsg struct {
	err string
}

type confirmMsg struct {
	message string
}

// orderItem represents an order in the list
type orderItem struct {
	id     uint
	title  string
	desc   string
	status string
}

func (i orderItem) Title() string       { return i.title }
func (i orderItem) Description() string { return i.desc }
func (i orderItem) FilterValue() string { return i.title }

// login authenticates against the API
func login(client *ApiClient, username, password string) tea.Cmd {
	return func() tea.Msg {
		if err := client.Login(username, password); err != nil {
			return errorMsg{err: fmt.Sprintf("Login failed: %v", err)}
		}
		return loginMsg{}
	}
}

// fetchOrders retrieves the restaurant's order queue
func fetchOrders(client *ApiClient, restaurantID uint) tea.Cmd {
	return func() tea.Msg {
		orders, err := client.GetRestaurantOrders(restaurantID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching orders: %v", err)}
		}
		return ordersMsg{orders: orders}
	}
}

// fetchOrderDetails retrieves details for a specific order
func fetchOrderDetails(client *ApiClient, id uint) tea.Cmd {
	return func() tea.Msg {
		order, err := client.GetOrder(id)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching order details: %v", err)}
		}
		return orderDetailMsg{order: *order}
	}
}

// advanceOrder moves an order forward in its lifecycle
func advanceOrder(client *ApiClient, order Order) tea.Cmd {
	return func() tea.Msg {
		if err := client.AdvanceOrder(&order); err != nil {
			return errorMsg{err: fmt.Sprintf("Error advancing order: %v", err)}
		}
		return confirmMsg{message: fmt.Sprintf("Order %d advanced", order.ID)}
	}
}

// toggleDelay flips the delay flag on an order
func toggleDelay(client *ApiClient, order Order) tea.Cmd {
	return func() tea.Msg {
		if err := client.ToggleDelay(&order); err != nil {
			return errorMsg{err: fmt.Sprintf("Error updating order: %v", err)}
		}
		return confirmMsg{message: fmt.Sprintf("Order %d delay flag updated", order.ID)}
	}
}

// fetchPayouts retrieves the current settlement week
func fetchPayouts(client *ApiClient, restaurantID uint) tea.Cmd {
	return func() tea.Msg {
		page, err := client.GetPayouts(restaurantID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching payouts: %v", err)}
		}
		return payoutsMsg{page: page}
	}
}

// convertOrdersToItems converts API orders to list items
func convertOrdersToItems(orders []Order) []list.Item {
	items := make([]list.Item, len(orders))
	for i, order := range orders {
		desc := fmt.Sprintf("%d items - %s baht - %s / %s",
			len(order.Items), order.TotalPrice, order.Status, order.PaymentStatus)
		if order.IsDelay {
			desc += " - DELAYED"
		}
		items[i] = orderItem{
			id:     order.ID,
			title:  fmt.Sprintf("Order #%d (deliver %s)", order.ID, order.DeliverAt.Format("15:04")),
			desc:   desc,
			status: order.Status,
		}
	}
	return items
}

// convertPayoutsToRows converts payouts to table rows
func convertPayoutsToRows(payouts []Payout) []table.Row {
	rows := make([]table.Row, len(payouts))
	for i, p := range payouts {
		rows[i] = table.Row{
			fmt.Sprintf("#%d", p.OrderID),
			p.RestaurantEarning,
			p.PlatformFee,
		}
	}
	return rows
}

// orderDetailView creates a detailed view of an order
func orderDetailView(order Order) string {
	view := titleStyle.Render(fmt.Sprintf("Order #%d Details", order.ID)) + "\n\n"
	view += fmt.Sprintf("Status: %s\n", order.Status)
	view += fmt.Sprintf("Payment: %s\n", order.PaymentStatus)
	view += fmt.Sprintf("Total: %s baht\n", order.TotalPrice)
	view += fmt.Sprintf("Ordered: %s\n", order.OrderAt.Format(time.RFC1123))
	view += fmt.Sprintf("Deliver by: %s\n", order.DeliverAt.Format(time.RFC1123))
	if order.IsDelay {
		view += "Flagged as delayed\n"
	}
	if order.RefCode != "" {
		view += fmt.Sprintf("Payment ref: %s\n", order.RefCode)
	}
	if order.Details != "" {
		view += fmt.Sprintf("Notes: %s\n", order.Details)
	}

	view += "\nItems:\n"
	for i, item := range order.Items {
		view += fmt.Sprintf("%d. menu %d (x%d) - %s baht each\n", i+1, item.MenuID, item.Quantity, item.UnitPrice)
	}

	view += "\nPress 'a' to advance status, 'd' to toggle delay, 'esc' to go back"

	return view
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
