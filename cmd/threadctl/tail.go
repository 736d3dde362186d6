package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var tailCmd = &cobra.Command{
	Use:     "tail",
	Short:   "Stream activity events for a signed-in user",
	GroupID: "api",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			token = os.Getenv("THREADLINE_TOKEN")
		}
		if token == "" {
			return fmt.Errorf("a bearer token is required (--token or THREADLINE_TOKEN)")
		}

		if strings.HasPrefix(host, "https://") || strings.HasPrefix(host, "http://") {
			return fmt.Errorf("--host takes host:port, not a URL")
		}

		ticket, err := fetchTicket(host, token)
		if err != nil {
			return err
		}

		u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
		conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
		if err != nil {
			return fmt.Errorf("dial %s: %w", u.Redacted(), err)
		}
		defer conn.Close()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		}()

		fmt.Fprintf(cmd.ErrOrStderr(), "connected to %s\n", host)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					return nil
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatEvent(msg))
		}
	},
}

func init() {
	tailCmd.Flags().String("host", "localhost:8375", "Server host:port")
	tailCmd.Flags().String("token", "", "Bearer token (defaults to THREADLINE_TOKEN)")
	rootCmd.AddCommand(tailCmd)
}

func fetchTicket(host, token string) (string, error) {
	req, err := http.NewRequest(http.MethodPost, "http://"+host+"/api/ws/ticket", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request ticket: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request ticket: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode ticket: %w", err)
	}
	if body.Ticket == "" {
		return "", fmt.Errorf("server returned an empty ticket")
	}
	return body.Ticket, nil
}

// formatEvent renders one stream frame as "type payload"; frames that are not
// event envelopes are printed as-is.
func formatEvent(msg []byte) string {
	var ev struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil || ev.Type == "" {
		return string(msg)
	}
	if len(ev.Payload) == 0 {
		return ev.Type
	}
	return ev.Type + " " + string(ev.Payload)
}
