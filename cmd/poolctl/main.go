package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// client is the thin HTTP client poolctl uses to talk to a running poold.
type client struct {
	addr string
	hc   *http.Client
}

func newClient(addr string) *client {
	return &client{addr: addr, hc: &http.Client{Timeout: 30 * time.Second}}
}

func (c *client) url(path string) string { return "http://" + c.addr + path }

func (c *client) postJSON(path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.url(path), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.hc.Do(req)
}

func (c *client) get(path string) (*http.Response, error) {
	return c.hc.Get(c.url(path))
}

func printResponseBody(resp *http.Response) error {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		fmt.Println(resp.Status)
		return nil
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, b, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(b))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("poold: %s", resp.Status)
	}
	return nil
}

func buildRootCmd() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:           "poolctl",
		Short:         "Control a running poold process over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", envOr("POOLCTL_ADDR", "localhost:8080"), "poold HTTP address")

	submitCmd := &cobra.Command{
		Use:   "submit <pool> <job>",
		Short: "Submit a job to a pool and print the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _ := cmd.Flags().GetString("data")
			var payload map[string]any
			if data != "" {
				if err := json.Unmarshal([]byte(data), &payload); err != nil {
					return fmt.Errorf("invalid --data JSON: %w", err)
				}
			}
			c := newClient(addr)
			resp, err := c.postJSON(fmt.Sprintf("/pools/%s/jobs", args[0]), map[string]any{
				"job":  args[1],
				"data": payload,
			})
			if err != nil {
				return err
			}
			return printResponseBody(resp)
		},
	}
	submitCmd.Flags().String("data", "", "JSON object passed as the job's data")

	statusCmd := &cobra.Command{
		Use:   "status [pool]",
		Short: "Print one pool's status, or every pool's when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(addr)
			path := "/status"
			if len(args) == 1 {
				path = fmt.Sprintf("/pools/%s/status", args[0])
			}
			resp, err := c.get(path)
			if err != nil {
				return err
			}
			return printResponseBody(resp)
		},
	}

	lifecycleCmd := func(use, short, verb string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <pool>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c := newClient(addr)
				resp, err := c.postJSON(fmt.Sprintf("/pools/%s/%s", args[0], verb), nil)
				if err != nil {
					return err
				}
				return printResponseBody(resp)
			},
		}
	}

	listenCmd := &cobra.Command{
		Use:   "listen <pool>",
		Short: "Poll a pool's status until interrupted, printing changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(addr)
			path := fmt.Sprintf("/pools/%s/status", args[0])
			var last string
			for {
				resp, err := c.get(path)
				if err != nil {
					return err
				}
				b, err := io.ReadAll(resp.Body)
				resp.Body.Close()
				if err != nil {
					return err
				}
				if s := string(b); s != last {
					fmt.Println(s)
					last = s
				}
				time.Sleep(time.Second)
			}
		},
	}

	root.AddCommand(
		submitCmd,
		statusCmd,
		lifecycleCmd("close", "Close a pool to new admission", "close"),
		lifecycleCmd("open", "Reopen a closed pool", "open"),
		lifecycleCmd("drain", "Drain a closed pool", "drain"),
		lifecycleCmd("reload", "Hot-reload a pool", "reload"),
		listenCmd,
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
