package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lovebridge/lovelock/internal/config"
	"github.com/lovebridge/lovelock/internal/signer"
	"github.com/lovebridge/lovelock/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	networkName string
	cfgFile     string
	outputJSON  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lovelock",
	Short: "Love lock CLI",
	Long: `lovelock creates and resolves love locks on a configured network.

A lock is proposed to a recipient, who accepts it (sealing it forever on
the bridge registry) or declines it (destroying it and refunding the
creator). Browsing commands need no key; create and fate do.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.lovelock")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("lovelock")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if networkName == "" {
			networkName = viper.GetString("network")
		}
		if networkName == "" {
			networkName = "testnet"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.lovelock/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&networkName, "network", "", "network to talk to: devnet, testnet or mainnet (default testnet)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(fateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(ownedCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(versionCmd)
}

// newClient builds an SDK client for the selected network. Browsing
// commands pass withKey=false and work without a configured key.
func newClient(withKey bool) (*client.Client, error) {
	net, err := config.FromViper(viper.GetViper(), networkName)
	if err != nil {
		return nil, err
	}

	opts := []client.Option{}
	if withKey {
		seed := viper.GetString("key")
		if seed == "" {
			return nil, errors.New("no key configured: set LOVELOCK_KEY or `key` in the config file (run `lovelock keygen` to create one)")
		}
		sgn, err := signer.FromSeedB64(seed)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithSigner(sgn))
	}
	return client.New(net, opts...)
}

// ── create ───────────────────────────────────────────────────────────────────

var (
	createRecipient string
	createMessage   string
	createDate      string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Propose a new lock to a recipient",
	Long: `create proposes a lock, escrows the lock price from your account, and
waits until the transaction is finalized:

  lovelock create --to 0xrecipient --message "always" --date 14/2/2025

Without --date the lock carries today's date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		day, month, year, err := parseDate(createDate)
		if err != nil {
			return err
		}

		c, err := newClient(true)
		if err != nil {
			return err
		}

		id, err := c.CreateLock(context.Background(), createRecipient, createMessage, day, month, year)
		if err != nil {
			return fmt.Errorf("create lock: %w", err)
		}

		if outputJSON {
			return printJSON(map[string]string{"id": id})
		}
		fmt.Printf("✓ Lock created\n\n")
		fmt.Printf("  ID:        %s\n", id)
		fmt.Printf("  Recipient: %s\n\n", createRecipient)
		fmt.Println("The recipient decides its fate: lovelock fate accept|decline " + id)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createRecipient, "to", "", "Recipient account address")
	createCmd.Flags().StringVar(&createMessage, "message", "", "Message engraved on the lock")
	createCmd.Flags().StringVar(&createDate, "date", "", "Creation date as d/m/y (default today)")

	_ = createCmd.MarkFlagRequired("to")
	_ = createCmd.MarkFlagRequired("message")
}

// parseDate reads a d/m/y flag value, defaulting to today.
func parseDate(s string) (day, month, year int, err error) {
	if s == "" {
		now := time.Now()
		return now.Day(), int(now.Month()), now.Year(), nil
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("date must be d/m/y, got %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(strings.TrimSpace(p))
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("date must be d/m/y, got %q", s)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

// ── fate ─────────────────────────────────────────────────────────────────────

var fateCmd = &cobra.Command{
	Use:   "fate <accept|decline> <lock-id>",
	Short: "Accept or decline a pending lock",
	Long: `fate submits your decision on a lock proposed to you.

Accepting seals the lock forever on the bridge registry. Declining
destroys it and refunds the creator; a declined lock is gone for good.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		decision := client.Decision(args[0])
		lockID := args[1]

		c, err := newClient(true)
		if err != nil {
			return err
		}

		if err := c.ResolveLock(context.Background(), lockID, decision); err != nil {
			return fmt.Errorf("resolve lock: %w", err)
		}

		if outputJSON {
			return printJSON(map[string]string{"id": lockID, "decision": string(decision)})
		}
		switch decision {
		case client.Accept:
			fmt.Printf("✓ Lock %s sealed on the bridge\n", lockID)
		default:
			fmt.Printf("✓ Lock %s declined and destroyed\n", lockID)
		}
		return nil
	},
}

// ── show ─────────────────────────────────────────────────────────────────────

var showCmd = &cobra.Command{
	Use:   "show <lock-id>",
	Short: "Show one lock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(false)
		if err != nil {
			return err
		}

		l, err := c.FetchLockByID(context.Background(), args[0])
		if err != nil {
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("no lock at %s (declined locks are destroyed)", args[0])
			}
			return err
		}

		if outputJSON {
			return printJSON(l)
		}
		status := "pending"
		if l.Closed {
			status = "sealed"
		}
		fmt.Printf("ID:        %s\n", l.ID)
		fmt.Printf("Creator:   %s\n", l.Creator)
		fmt.Printf("Recipient: %s\n", l.Recipient)
		fmt.Printf("Message:   %s\n", l.Message)
		fmt.Printf("Date:      %s\n", l.CreationDate)
		fmt.Printf("Status:    %s\n", status)
		return nil
	},
}

// ── pending / owned / bridge ─────────────────────────────────────────────────

var pendingCmd = &cobra.Command{
	Use:   "pending [address]",
	Short: "List locks awaiting an address's decision",
	Long: `pending lists the open locks proposed to an address. With no argument
it uses the configured key's own address.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, c, err := resolveAddressArg(args)
		if err != nil {
			return err
		}

		locks, err := c.FetchPendingForRecipient(context.Background(), address)
		if err != nil {
			return err
		}
		return printLocks(locks, "no pending locks for "+address)
	},
}

var ownedCmd = &cobra.Command{
	Use:   "owned [address]",
	Short: "List every lock an address holds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, c, err := resolveAddressArg(args)
		if err != nil {
			return err
		}

		locks, err := c.FetchLocksByOwner(context.Background(), address)
		if err != nil {
			return err
		}
		return printLocks(locks, "no locks owned by "+address)
	},
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "List the sealed locks on the bridge registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(false)
		if err != nil {
			return err
		}

		locks, err := c.FetchRegistryLocks(context.Background())
		if err != nil {
			return err
		}
		return printLocks(locks, "the bridge holds no locks yet")
	},
}

// resolveAddressArg picks the address from args, falling back to the
// configured key's address.
func resolveAddressArg(args []string) (string, *client.Client, error) {
	if len(args) == 1 {
		c, err := newClient(false)
		return args[0], c, err
	}
	c, err := newClient(true)
	if err != nil {
		return "", nil, err
	}
	return c.Address(), c, nil
}

func printLocks(locks []client.Lock, emptyMsg string) error {
	if outputJSON {
		return printJSON(locks)
	}
	if len(locks) == 0 {
		fmt.Println(emptyMsg)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATOR\tRECIPIENT\tDATE\tSTATUS\tMESSAGE")
	for _, l := range locks {
		status := "pending"
		if l.Closed {
			status = "sealed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Creator, l.Recipient, l.CreationDate, status, l.Message)
	}
	return w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── keygen ───────────────────────────────────────────────────────────────────

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new signing key",
	Long: `keygen creates an ed25519 key and prints its base64 seed and account
address. Store the seed in LOVELOCK_KEY or under ` + "`key`" + ` in the config
file; anyone holding the seed controls the account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return err
		}
		sgn, err := signer.New(priv)
		if err != nil {
			return err
		}

		seed := base64.StdEncoding.EncodeToString(priv.Seed())
		if outputJSON {
			return printJSON(map[string]string{"address": sgn.Address(), "seed": seed})
		}
		fmt.Printf("Address: %s\n", sgn.Address())
		fmt.Printf("Seed:    %s\n", seed)
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lovelock CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lovelock %s\n", version)
	},
}
