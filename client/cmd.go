package client

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/aep/scopedb/aql"
	"github.com/aep/scopedb/sdk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

var (
	file string
	conf = viper.New()

	CMD = &cobra.Command{
		Use:     "client",
		Aliases: []string{"c"},
		Short:   "Talk to a running server",
	}

	putCmd = &cobra.Command{
		Use:     "apply",
		Aliases: []string{"put"},
		Short:   "Create or update collections, indexes, authorizations and documents from file",
		RunE:    put,
	}

	getCmd = &cobra.Command{
		Use:   "get [collection/id]",
		Short: "Get a document",
		Args:  cobra.ExactArgs(1),
		RunE:  get,
	}

	editCmd = &cobra.Command{
		Use:   "edit [collection/id]",
		Short: "Edit a document",
		Args:  cobra.ExactArgs(1),
		RunE:  edit,
	}

	deleteCmd = &cobra.Command{
		Use:     "delete [collection/id]",
		Aliases: []string{"rm"},
		Short:   "Delete a document",
		Args:    cobra.ExactArgs(1),
		RunE:    del,
	}

	searchCmd = &cobra.Command{
		Use:     "query [q] [params...]",
		Aliases: []string{"search", "find"},
		Short:   `Query documents, e.g. book(author="Irvine Welsh" rating=["07", "09"])`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    search,
	}

	collectionsCmd = &cobra.Command{
		Use:   "collections",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE:  collections,
	}
)

func init() {
	f := CMD.PersistentFlags()
	f.String("server", "http://localhost:5052", "server url")
	f.String("api-key-id", "", "api key id")
	f.String("api-key", "", "api key secret")
	f.String("client-id", "", "client id to sign requests as")
	f.String("private-key", "", "PEM private key file to sign requests with")
	f.String("admin-username", "", "admin username")
	f.String("admin-password", "", "admin password")

	conf.SetEnvPrefix("SCOPEDB")
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.AutomaticEnv()
	conf.BindPFlags(f)

	putCmd.Flags().StringVarP(&file, "file", "f", "", "Path to YAML file, - for stdin")
	putCmd.MarkFlagRequired("file")

	CMD.AddCommand(putCmd)
	CMD.AddCommand(getCmd)
	CMD.AddCommand(editCmd)
	CMD.AddCommand(deleteCmd)
	CMD.AddCommand(searchCmd)
	CMD.AddCommand(collectionsCmd)
}

func getClient() (*sdk.Client, error) {
	var opts []sdk.Option
	switch {
	case conf.GetString("admin-username") != "":
		opts = append(opts, sdk.WithAdmin(conf.GetString("admin-username"), conf.GetString("admin-password")))
	case conf.GetString("api-key-id") != "":
		opts = append(opts, sdk.WithAPIKey(conf.GetString("api-key-id"), conf.GetString("api-key")))
	case conf.GetString("client-id") != "":
		pemBytes, err := os.ReadFile(conf.GetString("private-key"))
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		key, err := sdk.ParsePrivateKey(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		opts = append(opts, sdk.WithSignature(conf.GetString("client-id"), key))
	}

	client, err := sdk.New(conf.GetString("server"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func splitPath(arg string) (string, string, error) {
	collection, id, ok := strings.Cut(arg, "/")
	if !ok || collection == "" || id == "" {
		return "", "", fmt.Errorf("invalid id format %q, expected collection/id", arg)
	}
	return collection, id, nil
}

func put(cmd *cobra.Command, args []string) error {
	manifests, err := parseFile(file)
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	for _, m := range manifests {
		status, err := apply(cmd.Context(), client, m)
		if err != nil {
			return fmt.Errorf("failed to apply %s: %w", m.Kind, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), status)
	}
	return nil
}

func get(cmd *cobra.Command, args []string) error {
	collection, id, err := splitPath(args[0])
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	doc, err := client.GetDocument(cmd.Context(), collection, id)
	if err != nil {
		return err
	}

	enc, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode as YAML: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(enc)
	return err
}

func del(cmd *cobra.Command, args []string) error {
	collection, id, err := splitPath(args[0])
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	if err := client.DeleteDocument(cmd.Context(), collection, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s/%s deleted\n", collection, id)
	return nil
}

func search(cmd *cobra.Command, args []string) error {
	params := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		params = append(params, a)
	}
	q, err := aql.Parse(args[0], params...)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	res, err := client.Query(cmd.Context(), q.Collection, q.Predicate(), q.Limit, q.Cursor)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, doc := range res.Data {
		if i > 0 {
			fmt.Fprintln(out, "---")
		}
		enc, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		out.Write(enc)
	}
	if res.HasMore && res.NextCursor != nil {
		q.Cursor = res.NextCursor
		fmt.Fprintf(cmd.ErrOrStderr(), "more results: %s\n", q.String())
	}
	return nil
}

func collections(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}
	cols, err := client.ListCollections(cmd.Context())
	if err != nil {
		return err
	}
	for _, c := range cols {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.Name, c.IDKey)
	}
	return nil
}

func edit(cmd *cobra.Command, args []string) error {
	collection, id, err := splitPath(args[0])
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	doc, err := client.GetDocument(cmd.Context(), collection, id)
	if err != nil {
		return err
	}

	tmpfile, err := os.CreateTemp("", "scopedb-edit-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmpfile.Name())

	original, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	tmpfile.Write(original)
	tmpfile.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	ed := exec.CommandContext(cmd.Context(), editor, tmpfile.Name())
	ed.Stdin = os.Stdin
	ed.Stdout = os.Stdout
	ed.Stderr = os.Stderr
	if err := ed.Run(); err != nil {
		return err
	}

	edited, err := os.ReadFile(tmpfile.Name())
	if err != nil {
		return err
	}
	if bytes.Equal(edited, original) {
		fmt.Fprintln(cmd.OutOrStdout(), "Edit cancelled, no changes made")
		return nil
	}

	js, err := yaml.YAMLToJSON(edited)
	if err != nil {
		return fmt.Errorf("edited document is not valid YAML: %w", err)
	}
	var updated map[string]any
	if err := decode(js, &updated); err != nil {
		return err
	}
	if _, err := client.UpdateDocument(cmd.Context(), collection, id, updated); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s/%s configured\n", collection, id)
	return nil
}
