package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles API requests to the foodcourt server
type ApiClient struct {
	httpClient  *http.Client
	BaseURL     string
	AccessToken string
	UseMock     bool
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("FOODCOURT_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		UseMock: false, // Default to trying the real server first
	}

	// Verify connectivity - if server is not available, use mock data
	if !client.ping() {
		fmt.Printf("Warning: API server at %s is not available. Using mock data.\n", baseURL)
		client.UseMock = true
	}

	return client
}

// ping checks if the API server is available
func (c *ApiClient) ping() bool {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// TokenPair is the login response
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Order represents a customer order as the API returns it
type Order struct {
	ID            uint        `json:"ID"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"paymentStatus"`
	IsDelay       bool        `json:"isDelay"`
	TotalPrice    string      `json:"totalPrice"`
	RefCode       string      `json:"refCode"`
	OrderAt       time.Time   `json:"orderAt"`
	DeliverAt     time.Time   `json:"deliverAt"`
	Details       string      `json:"details"`
	RestaurantID  uint        `json:"restaurantId"`
	Items         []OrderItem `json:"items"`
}

// OrderItem represents a line item within an order
type OrderItem struct {
	MenuID    uint   `json:"menuId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

// Payout is one settlement record
type Payout struct {
	OrderID           uint   `json:"orderId"`
	RestaurantEarning string `json:"restaurantEarning"`
	PlatformFee       string `json:"platformFee"`
}

// WeekWindow is the settlement week the payouts belong to
type WeekWindow struct {
	FormattedStart string `json:"formattedStartDate"`
	FormattedEnd   string `json:"formattedEndDate"`
}

// PayoutPage is the payout listing response
type PayoutPage struct {
	Week    WeekWindow `json:"week"`
	Payouts []Payout   `json:"payouts"`
}

// Login authenticates and stores the access token for later calls
func (c *ApiClient) Login(username, password string) error {
	if c.UseMock {
		c.AccessToken = "mock-token"
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.BaseURL+"/api/v1/auth/login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed: %s", string(raw))
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return err
	}
	c.AccessToken = pair.AccessToken
	return nil
}

func (c *ApiClient) do(method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	return c.httpClient.Do(req)
}

// GetRestaurantOrders retrieves the order queue for a restaurant
func (c *ApiClient) GetRestaurantOrders(restaurantID uint) ([]Order, error) {
	if c.UseMock {
		return c.getMockOrders(), nil
	}

	resp, err := c.do("GET", fmt.Sprintf("/api/v1/restaurants/%d/orders", restaurantID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to list orders: %s", string(raw))
	}

	var orders []Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder retrieves a specific order by ID
func (c *ApiClient) GetOrder(id uint) (*Order, error) {
	if c.UseMock {
		return c.getMockOrder(id), nil
	}

	resp, err := c.do("GET", fmt.Sprintf("/api/v1/orders/%d", id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get order: %s", string(raw))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// nextStatus maps each lifecycle state to its successor
var nextStatus = map[string]string{
	"receive": "cooking",
	"cooking": "ready",
	"ready":   "done",
}

// AdvanceOrder moves an order to the next lifecycle state
func (c *ApiClient) AdvanceOrder(order *Order) error {
	next, ok := nextStatus[order.Status]
	if !ok {
		return fmt.Errorf("order is already %s", order.Status)
	}

	if c.UseMock {
		order.Status = next
		return nil
	}

	resp, err := c.do("PUT", fmt.Sprintf("/api/v1/orders/%d", order.ID), map[string]string{"status": next})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to advance order: %s", string(raw))
	}
	return nil
}

// ToggleDelay flips the delay flag on an order
func (c *ApiClient) ToggleDelay(order *Order) error {
	if c.UseMock {
		order.IsDelay = !order.IsDelay
		return nil
	}

	resp, err := c.do("PUT", fmt.Sprintf("/api/v1/orders/%d", order.ID), map[string]bool{"isDelay": !order.IsDelay})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to update order: %s", string(raw))
	}
	return nil
}

// GetPayouts retrieves the current settlement week for a restaurant
func (c *ApiClient) GetPayouts(restaurantID uint) (*PayoutPage, error) {
	if c.UseMock {
		return c.getMockPayouts(), nil
	}

	resp, err := c.do("GET", fmt.Sprintf("/api/v1/restaurants/%d/payouts", restaurantID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to list payouts: %s", string(raw))
	}

	var page PayoutPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Mock data generators
// getMockOrders generates mock order data
func (c *ApiClient) getMockOrders() []Order {
	return []Order{
		{
			ID:            1,
			Status:        "cooking",
			PaymentStatus: "paid",
			TotalPrice:    "175.5",
			OrderAt:       time.Now().Add(-30 * time.Minute),
			DeliverAt:     time.Now().Add(30 * time.Minute),
			Details:       "extra spicy",
			Items: []OrderItem{
				{MenuID: 1, Quantity: 2, UnitPrice: "60"},
				{MenuID: 2, Quantity: 1, UnitPrice: "55.5"},
			},
		},
		{
			ID:            2,
			Status:        "receive",
			PaymentStatus: "pending",
			TotalPrice:    "120",
			OrderAt:       time.Now().Add(-10 * time.Minute),
			DeliverAt:     time.Now().Add(50 * time.Minute),
			Items: []OrderItem{
				{MenuID: 3, Quantity: 2, UnitPrice: "60"},
			},
		},
		{
			ID:            3,
			Status:        "done",
			PaymentStatus: "paid",
			IsDelay:       true,
			TotalPrice:    "85",
			OrderAt:       time.Now().Add(-90 * time.Minute),
			DeliverAt:     time.Now().Add(-15 * time.Minute),
			Items: []OrderItem{
				{MenuID: 4, Quantity: 1, UnitPrice: "85"},
			},
		},
	}
}

// getMockOrder returns a mock order by ID
func (c *ApiClient) getMockOrder(id uint) *Order {
	for _, order := range c.getMockOrders() {
		if order.ID == id {
			return &order
		}
	}
	return nil
}

// getMockPayouts returns a mock settlement week
func (c *ApiClient) getMockPayouts() *PayoutPage {
	return &PayoutPage{
		Week: WeekWindow{FormattedStart: "15/01/24", FormattedEnd: "21/01/24"},
		Payouts: []Payout{
			{OrderID: 1, RestaurantEarning: "157.95", PlatformFee: "12.1"},
			{OrderID: 3, RestaurantEarning: "76.5", PlatformFee: "5.86"},
		},
	}
}
