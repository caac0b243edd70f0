package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/pix-donation/internal/vault"
	"github.com/frahmantamala/pix-donation/pkg/logger"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Credential vault utilities",
}

var vaultEncryptCmd = &cobra.Command{
	Use:   "encrypt [plaintext]",
	Short: "Encrypt a gateway secret with the configured key",
	Long: `Encrypt a gateway secret key and print the packed ciphertext.
Reads the plaintext from the first argument or, when absent, from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		initLogger(cfg)

		v, err := vault.New(cfg.Security.EncryptionKey, cfg.Security.Environment, logger.LoggerWrapper())
		if err != nil {
			return fmt.Errorf("failed to init vault: %w", err)
		}

		var plaintext string
		if len(args) == 1 {
			plaintext = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read plaintext: %w", err)
			}
			plaintext = strings.TrimRight(line, "\r\n")
		}
		if plaintext == "" {
			return errors.New("plaintext is required")
		}

		packed, err := v.Encrypt(plaintext)
		if err != nil {
			return err
		}
		if v.Insecure() {
			fmt.Fprintln(os.Stderr, "warning: encrypted with the development key")
		}
		fmt.Fprintln(cmd.OutOrStdout(), packed)
		return nil
	},
}

func init() {
	vaultCmd.AddCommand(vaultEncryptCmd)
}
