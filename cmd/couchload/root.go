package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hidal-go/docload/document"
	"github.com/hidal-go/docload/source"
	_ "github.com/hidal-go/docload/source/couch"
	_ "github.com/hidal-go/docload/source/mongo"
)

const envPrefix = "COUCHLOAD"

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfgFile string
	root := &cobra.Command{
		Use:          "couchload",
		Short:        "Load documents from a document store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile == "" {
				return nil
			}
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %q: %w", cfgFile, err)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.String("driver", source.DefaultDriver, "source driver name")
	flags.String("url", "", "full server url; overrides host and port")
	flags.String("user", "", "user name")
	flags.String("password", "", "password")
	flags.String("host", "localhost", "server host")
	flags.Int("port", 5984, "server port")
	flags.Int("max-docs", source.DefaultMaxDocs, "maximum number of documents to load")
	flags.BoolP("verbose", "v", false, "log debug messages to stderr")

	for _, key := range []string{"driver", "url", "user", "password", "host", "port", "verbose"} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}
	_ = v.BindPFlag("max_docs", flags.Lookup("max-docs"))

	root.AddCommand(newLoadCmd(v), newDriversCmd())
	return root
}

func newLogger(cmd *cobra.Command, v *viper.Viper) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if v.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func newLoadCmd(v *viper.Viper) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "load <collection>",
		Short: "Load all documents of a collection, or those matching a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd, v)

			var cfg source.Config
			if err := v.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("parse config: %w", err)
			}
			r, err := source.Open(cmd.Context(), cfg, source.WithLogger(log))
			if err != nil {
				return err
			}
			defer r.Close()

			col := args[0]
			var docs []document.Document
			if cmd.Flags().Changed("query") {
				docs, err = r.Find(cmd.Context(), col, query)
			} else {
				docs, err = r.Load(cmd.Context(), col)
			}
			if err != nil {
				return err
			}
			log.WithField("count", len(docs)).Debug("loaded documents")

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, d := range docs {
				if err := enc.Encode(d); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "store-specific query, e.g. a Mango selector for CouchDB")
	return cmd
}

func newDriversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List available source drivers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, r := range source.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Name, r.Title)
			}
		},
	}
}
