// Command assetlease is an admin CLI against the AssetLease HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "assetlease",
		Short: "AssetLease admin CLI",
	}

	rootCmd.AddCommand(
		assetCmd(),
		contractCmd(),
		paymentCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func apiBase() string {
	if base := os.Getenv("ASSETLEASE_API"); base != "" {
		return base
	}
	return "http://localhost:8080"
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func call(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, apiBase()+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func assetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage the asset catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			path := "/api/assets"
			if category != "" {
				path += "?category=" + category
			}

			var assets []struct {
				ID       int64   `json:"id"`
				Name     string  `json:"name"`
				Category string  `json:"category"`
				Price    float64 `json:"price"`
				Status   string  `json:"status"`
			}
			if err := call(http.MethodGet, path, nil, &assets); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTATUS")
			for _, a := range assets {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\n", a.ID, a.Name, a.Category, a.Price, a.Status)
			}
			return w.Flush()
		},
	}
	list.Flags().String("category", "", "filter by category")

	create := &cobra.Command{
		Use:   "create",
		Short: "Register a new asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			address, _ := cmd.Flags().GetString("address")
			price, _ := cmd.Flags().GetFloat64("price")
			category, _ := cmd.Flags().GetString("category")

			var asset struct {
				ID int64 `json:"id"`
			}
			err := call(http.MethodPost, "/api/assets", map[string]any{
				"name":     name,
				"address":  address,
				"price":    price,
				"category": category,
			}, &asset)
			if err != nil {
				return err
			}
			fmt.Printf("asset %d created\n", asset.ID)
			return nil
		},
	}
	create.Flags().String("name", "", "asset name")
	create.Flags().String("address", "", "asset address")
	create.Flags().Float64("price", 0, "rate per pricing unit")
	create.Flags().String("category", "", "asset category")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("address")
	_ = create.MarkFlagRequired("price")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an asset and everything attached to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := call(http.MethodDelete, "/api/assets/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Printf("asset %s deleted\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func contractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Manage rental contracts",
	}

	book := &cobra.Command{
		Use:   "book",
		Short: "Book an asset for a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, _ := cmd.Flags().GetInt64("asset")
			email, _ := cmd.Flags().GetString("email")
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			deposit, _ := cmd.Flags().GetFloat64("deposit")
			rentalType, _ := cmd.Flags().GetString("type")

			var contract struct {
				ID         int64   `json:"id"`
				TotalPrice float64 `json:"totalPrice"`
			}
			err := call(http.MethodPost, "/api/contracts", map[string]any{
				"assetId":     assetID,
				"tenantEmail": email,
				"startDate":   start,
				"endDate":     end,
				"deposit":     deposit,
				"rentalType":  rentalType,
			}, &contract)
			if err != nil {
				return err
			}
			fmt.Printf("contract %d booked, total %.2f\n", contract.ID, contract.TotalPrice)
			return nil
		},
	}
	book.Flags().Int64("asset", 0, "asset id")
	book.Flags().String("email", "", "tenant email")
	book.Flags().String("start", "", "start date (YYYY-MM-DD)")
	book.Flags().String("end", "", "end date (YYYY-MM-DD)")
	book.Flags().Float64("deposit", 0, "deposit amount")
	book.Flags().String("type", "daily", "rental type: daily or monthly")
	_ = book.MarkFlagRequired("asset")
	_ = book.MarkFlagRequired("email")
	_ = book.MarkFlagRequired("start")
	_ = book.MarkFlagRequired("end")

	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := call(http.MethodPost, "/api/contracts/"+args[0]+"/cancel", nil, nil); err != nil {
				return err
			}
			fmt.Printf("contract %s cancelled\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			path := "/api/contracts"
			if status != "" {
				path += "?status=" + status
			}

			var contracts []struct {
				ID         int64   `json:"id"`
				AssetID    int64   `json:"assetId"`
				TenantID   int64   `json:"tenantId"`
				StartDate  string  `json:"startDate"`
				EndDate    string  `json:"endDate"`
				TotalPrice float64 `json:"totalPrice"`
				Status     string  `json:"status"`
			}
			if err := call(http.MethodGet, path, nil, &contracts); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tASSET\tTENANT\tSTART\tEND\tTOTAL\tSTATUS")
			for _, c := range contracts {
				fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%.2f\t%s\n",
					c.ID, c.AssetID, c.TenantID, c.StartDate, c.EndDate, c.TotalPrice, c.Status)
			}
			return w.Flush()
		},
	}
	list.Flags().String("status", "", "filter by status")

	summary := &cobra.Command{
		Use:   "summary <id>",
		Short: "Print a contract statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out json.RawMessage
			if err := call(http.MethodGet, "/api/contracts/"+args[0]+"/summary", nil, &out); err != nil {
				return err
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, out, "", "  "); err != nil {
				return err
			}
			fmt.Println(pretty.String())
			return nil
		},
	}

	cmd.AddCommand(book, cancel, list, summary)
	return cmd
}

func paymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Manage the payment ledger",
	}

	record := &cobra.Command{
		Use:   "record <contract-id>",
		Short: "Record a payment against a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, _ := cmd.Flags().GetFloat64("amount")
			date, _ := cmd.Flags().GetString("date")
			note, _ := cmd.Flags().GetString("note")

			var payment struct {
				ID int64 `json:"id"`
			}
			err := call(http.MethodPost, "/api/contracts/"+args[0]+"/payments", map[string]any{
				"amount":      amount,
				"paymentDate": date,
				"note":        note,
			}, &payment)
			if err != nil {
				return err
			}
			fmt.Printf("payment %d recorded\n", payment.ID)
			return nil
		},
	}
	record.Flags().Float64("amount", 0, "payment amount")
	record.Flags().String("date", "", "payment date (YYYY-MM-DD)")
	record.Flags().String("note", "", "optional note")
	_ = record.MarkFlagRequired("amount")
	_ = record.MarkFlagRequired("date")

	balance := &cobra.Command{
		Use:   "balance <contract-id>",
		Short: "Show the outstanding balance on a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				TotalPrice  float64 `json:"totalPrice"`
				Paid        float64 `json:"paid"`
				Outstanding float64 `json:"outstanding"`
			}
			if err := call(http.MethodGet, "/api/contracts/"+args[0]+"/balance", nil, &out); err != nil {
				return err
			}
			fmt.Printf("total: %.2f\npaid: %.2f\noutstanding: %.2f\n", out.TotalPrice, out.Paid, out.Outstanding)
			return nil
		},
	}

	cmd.AddCommand(record, balance)
	return cmd
}
