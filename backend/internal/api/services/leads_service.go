package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrInvalidLead   = errors.New("lead needs a name and an email or phone")
	ErrRelayDisabled = errors.New("no lead relay endpoint configured")
)

// Lead is a contact-form submission. Nothing is stored locally.
type Lead struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message,omitempty"`
	Reference string `json:"reference,omitempty"`
}

func (l Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrInvalidLead
	}
	if strings.TrimSpace(l.Email) == "" && strings.TrimSpace(l.Phone) == "" {
		return ErrInvalidLead
	}
	return nil
}

// LeadsClient forwards leads as JSON to a form-relay endpoint.
type LeadsClient struct {
	endpoint string
	client   *http.Client
}

func NewLeadsClient(endpoint string, client *http.Client) *LeadsClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &LeadsClient{endpoint: endpoint, client: client}
}

func (c *LeadsClient) Submit(ctx context.Context, lead Lead) error {
	if c.endpoint == "" {
		return ErrRelayDisabled
	}
	if err := lead.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(lead)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay lead: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("relay lead: status %d", resp.StatusCode)
	}
	return nil
}
