package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/dirk.krummacker/contact-manager/pkg/client"
	"gitlab.com/dirk.krummacker/contact-manager/pkg/model"
)

var (
	baseURL string
	api     *client.Client
)

// rootCmd is the command line client of the contact manager
var rootCmd = &cobra.Command{
	Use:   "contactsctl",
	Short: "Command line client for the contact manager",
	Long: `Read and modify contacts through the REST API of a running contact manager.

Usage example on the command line:
  > go run main.go list
  > go run main.go create --name "Hans Wurst" --phone 0815
  > go run main.go --url http://localhost:9090 bench --sizes 1000,5000`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		api = client.New(baseURL)
	},
}

var (
	listLimit  int
	listOffset int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		contacts, err := api.List(cmd.Context(), listLimit, listOffset)
		if err != nil {
			return err
		}
		return printJSON(contacts)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		contact, err := api.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(contact)
	},
}

// contactFlags are shared by create and update.
type contactFlags struct {
	name      string
	phone     string
	jobTitle  string
	birthDate string
}

func (f *contactFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&f.phone, "phone", "", "mobile phone number (required)")
	cmd.Flags().StringVar(&f.jobTitle, "job-title", "", "job title")
	cmd.Flags().StringVar(&f.birthDate, "birth-date", "", "birth date as YYYY-MM-DD")
}

func (f *contactFlags) contact() (model.Contact, error) {
	contact := model.Contact{Name: f.name, MobilePhone: f.phone}
	if f.jobTitle != "" {
		contact.JobTitle = &f.jobTitle
	}
	if f.birthDate != "" {
		birthDate, err := time.Parse(time.DateOnly, f.birthDate)
		if err != nil {
			return model.Contact{}, fmt.Errorf("invalid birth date %q: %w", f.birthDate, err)
		}
		contact.BirthDate = &birthDate
	}
	return contact, nil
}

var createFlags contactFlags

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a contact",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		contact, err := createFlags.contact()
		if err != nil {
			return err
		}
		created, err := api.Create(cmd.Context(), contact)
		if err != nil {
			return err
		}
		return printJSON(created)
	},
}

var updateFlags contactFlags

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace name, phone, job title and birth date of a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		contact, err := updateFlags.contact()
		if err != nil {
			return err
		}
		contact.Id = id
		updated, err := api.Update(cmd.Context(), contact)
		if err != nil {
			return err
		}
		return printJSON(updated)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := api.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("contact %d deleted\n", id)
		return nil
	},
}

var (
	waitInterval time.Duration
	waitTimeout  time.Duration
)

// waitCmd blocks until the service answers its readiness probe, e.g. in CI before running tests
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait until the service is available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), waitTimeout)
		defer cancel()
		err := api.WaitUntilAvailable(ctx, waitInterval, func(waited time.Duration, err error) {
			fmt.Printf("Waiting %s: %v\n", waited.Round(time.Second), err)
		})
		if err != nil {
			return err
		}
		fmt.Println("service is available")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", envOr("CONTACTS_URL", client.DefaultBaseURL), "base URL of the contact manager")

	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of contacts, 0 for all")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "number of contacts to skip")
	createFlags.register(createCmd)
	updateFlags.register(updateCmd)
	waitCmd.Flags().DurationVar(&waitInterval, "interval", 5*time.Second, "time between two attempts")
	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 5*time.Minute, "give up after this time")

	rootCmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd, waitCmd, benchCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
