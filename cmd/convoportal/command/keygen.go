package command

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/harrylevesque/convoportal/internal/crypto"
)

// keygenCmd prints fresh key material as environment assignments, or writes
// it to a file that must not exist yet.
func keygenCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate token passphrase, salt and cookie secret",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if out == "" {
				return writeKeys(c.OutOrStdout())
			}
			f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
			if err != nil {
				if os.IsExist(err) {
					return errors.Errorf("%s already exists. Refusing to overwrite", out)
				}
				return errors.Wrap(err, "create key file")
			}
			defer f.Close()
			if err := writeKeys(f); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Keys written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this env file instead of stdout")
	return cmd
}

func writeKeys(w io.Writer) error {
	keys := []struct {
		env  string
		size int
	}{
		{"PORTAL_TOKEN_PASSPHRASE", 32},
		{"PORTAL_TOKEN_SALT", 16},
		{"PORTAL_COOKIE_SECRET", 32},
	}
	for _, k := range keys {
		b, err := crypto.RandomBytes(k.size)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s=%s\n", k.env, hex.EncodeToString(b)); err != nil {
			return errors.Wrap(err, "write keys")
		}
	}
	return nil
}
