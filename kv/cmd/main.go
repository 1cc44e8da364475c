package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/aep/scopedb/kv"
	"github.com/spf13/cobra"
)

var (
	engine      string
	pebbleDir   string
	pdEndpoints []string

	CMD = &cobra.Command{
		Use:   "kv",
		Short: "direct low level access to the store",
	}
)

func init() {
	f := CMD.PersistentFlags()
	f.StringVar(&engine, "kv", "pebble", "pebble, pebble-mem or tikv")
	f.StringVar(&pebbleDir, "pebble-dir", "pebble-db", "pebble data directory")
	f.StringSliceVar(&pdEndpoints, "pd-endpoint", nil, "tikv placement driver endpoints")

	CMD.AddCommand(listCmd)
	CMD.AddCommand(getCmd)
	CMD.AddCommand(putCmd)
	CMD.AddCommand(delCmd)
}

func open() (kv.KV, error) {
	return kv.Open(engine, pebbleDir, pdEndpoints)
}

// unescape turns \xNN sequences back into bytes, so keys printed by ls can
// be pasted into get and del.
func unescape(s string) []byte {
	var out []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			if b, err := hex.DecodeString(s[i+2 : i+4]); err == nil {
				out = append(out, b[0])
				i += 3
				continue
			}
		}
		out = append(out, s[i])
	}
	return out
}

var listCmd = &cobra.Command{
	Use:   "ls [prefix]",
	Short: "List keys, optionally below a prefix",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := open()
		if err != nil {
			return err
		}
		defer k.Close()

		var start, end []byte
		if len(args) == 1 {
			start = unescape(args[0])
			end = kv.PrefixEnd(start)
		}

		r := k.Read()
		defer r.Close()
		for item, err := range r.Iter(cmd.Context(), start, end) {
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), escapeNonPrintable(item.K))
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get value for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := open()
		if err != nil {
			return err
		}
		defer k.Close()

		r := k.Read()
		defer r.Close()
		v, err := r.Get(cmd.Context(), unescape(args[0]))
		if err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("not found")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(v))
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:   "put [key] [value]",
	Short: "Put a key-value pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := open()
		if err != nil {
			return err
		}
		defer k.Close()

		w := k.Write()
		defer w.Close()
		if err := w.Put(unescape(args[0]), []byte(args[1])); err != nil {
			return err
		}
		return w.Commit(cmd.Context())
	},
}

var delCmd = &cobra.Command{
	Use:     "del [key]",
	Aliases: []string{"rm"},
	Short:   "Delete a key-value pair",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := open()
		if err != nil {
			return err
		}
		defer k.Close()

		w := k.Write()
		defer w.Close()
		if err := w.Del(unescape(args[0])); err != nil {
			return err
		}
		return w.Commit(cmd.Context())
	},
}

func escapeNonPrintable(b []byte) string {
	var result strings.Builder
	for _, c := range b {
		if c >= 32 && c <= 126 && c != '\\' {
			result.WriteByte(c)
		} else {
			result.WriteString(fmt.Sprintf("\\x%02x", c))
		}
	}
	return result.String()
}
