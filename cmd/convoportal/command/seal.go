package command

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/harrylevesque/convoportal/internal/config"
	"github.com/harrylevesque/convoportal/internal/crypto"
)

// sealCmd encrypts a session token the way the backend does before putting
// it in a portal link.
func sealCmd(configPath func() string) *cobra.Command {
	var (
		format string
		open   bool
	)
	cmd := &cobra.Command{
		Use:   "seal [token|-]",
		Short: "encrypt a session token for a portal link (or decrypt one with --open)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			f, err := crypto.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := config.Read(configPath())
			if err != nil {
				return err
			}
			d, err := crypto.NewDecryptor(cfg.Token.Passphrase, cfg.Token.Salt, cfg.Token.Iterations)
			if err != nil {
				return err
			}

			in, err := readInput(c.InOrStdin(), args)
			if err != nil {
				return err
			}

			var out string
			if open {
				out, err = d.Decrypt(f, in)
			} else {
				out, err = d.Seal(f, in)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", crypto.FormatColon.String(), "wire format: colon or prefixed")
	cmd.Flags().BoolVar(&open, "open", false, "decrypt instead of encrypt")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "read stdin")
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("nothing to seal")
	}
	return line, nil
}
