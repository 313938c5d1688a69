package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rdholakia/kaagaz/broker/zerodha"
	"github.com/rdholakia/kaagaz/config"
)

// kiteTokenPath is where the daily access token is cached. Kite tokens
// expire every morning around 6 AM IST, so re-auth is a daily chore.
const kiteTokenPath = ".kite_token"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate against the Zerodha Kite Connect API",
	Long: `Walk through the Kite Connect login flow and cache the access token.

The flow is browser-assisted: visit the printed login URL, sign in, and
paste the request_token from the redirect URL back here.`,
	RunE: runAuth,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the cached access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := (config.TokenStore{Path: kiteTokenPath}).Clear(); err != nil {
			return err
		}
		fmt.Println("Cached token removed")
		return nil
	},
}

var authEnvFile string

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authClearCmd)

	authCmd.Flags().StringVar(&authEnvFile, "env", "", "env file with KITE_API_KEY / KITE_API_SECRET")
}

func runAuth(cmd *cobra.Command, args []string) error {
	creds, err := config.LoadCredentials(authEnvFile)
	if err != nil {
		return err
	}
	if err := creds.RequireZerodha(); err != nil {
		return err
	}

	client := zerodha.NewClient(creds.KiteAPIKey, creds.KiteAPISecret)

	fmt.Println("Visit this URL and log in:")
	fmt.Printf("  %s\n\n", client.LoginURL())
	fmt.Println("After login you are redirected with a request_token parameter.")
	fmt.Print("Enter request_token: ")

	reader := bufio.NewReader(os.Stdin)
	requestToken, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read request token: %w", err)
	}
	requestToken = strings.TrimSpace(requestToken)
	if requestToken == "" {
		return fmt.Errorf("no request token provided")
	}

	sess, err := client.GenerateSession(cmd.Context(), requestToken)
	if err != nil {
		return fmt.Errorf("generate session: %w", err)
	}

	// Connectivity check before caching anything.
	profile, err := client.Profile(cmd.Context())
	if err != nil {
		return fmt.Errorf("verify session: %w", err)
	}

	store := config.TokenStore{Path: kiteTokenPath}
	if err := store.Save(sess.AccessToken); err != nil {
		return err
	}

	fmt.Printf("\nAuthenticated as %s (%s)\n", profile.UserName, profile.UserID)
	fmt.Printf("Access token cached in %s (expires ~6 AM IST)\n", kiteTokenPath)
	return nil
}
