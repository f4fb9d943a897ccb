// Package main provides the tablexport CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/locvowork/tablexport/internal/bootstrap"
	"github.com/locvowork/tablexport/internal/config"
	"github.com/locvowork/tablexport/internal/database"
	"github.com/locvowork/tablexport/internal/logger"
	"github.com/locvowork/tablexport/pkg/xlsxport"
)

const progressEvery = 100000

var (
	sheetName  string
	dateOrder  string
	configPath string
	query      string
	dsn        string
	hasHeader  bool
	parallel   bool
	stream     bool
	verbose    bool

	// dateOrderFromFlag records whether --date-order was given explicitly,
	// in which case it wins over a config file's date_order.
	dateOrderFromFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tablexport [input.csv] [output.xlsx]",
		Short: "Convert CSV and SQL results to typed, formatted XLSX files",
		Long: `tablexport converts CSV files or SQL query results into XLSX
workbooks, classifying every field into a typed cell (numbers, booleans,
dates, text) and applying declarative formatting from a YAML config.`,
		Args:          cobra.RangeArgs(1, 2),
		RunE:          runConvert,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Flags().StringVarP(&sheetName, "sheet", "s", "", "Sheet name (default from SHEET_NAME env, else Sheet1)")
	rootCmd.Flags().StringVar(&dateOrder, "date-order", "", "Ambiguous date order: auto, mdy or dmy")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML formatting config path")
	rootCmd.Flags().StringVarP(&query, "query", "q", "", "Export a SQL query result instead of reading the input CSV")
	rootCmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string for --query (default from DB_* env)")
	rootCmd.Flags().BoolVar(&hasHeader, "header", false, "Treat the first CSV record as column names")
	rootCmd.Flags().BoolVarP(&parallel, "parallel", "p", false, "Classify fields with parallel workers")
	rootCmd.Flags().BoolVar(&stream, "stream", false, "Reduced-memory streaming output (skips post-header formatting)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Report timing and progress to stderr")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	// Query mode takes only the output path; CSV mode takes input and
	// output.
	var inputPath, outputPath string
	if query != "" {
		outputPath = args[len(args)-1]
	} else {
		if len(args) != 2 {
			return fmt.Errorf("input and output paths required")
		}
		inputPath, outputPath = args[0], args[1]
	}
	ctx := context.Background()

	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("load env config: %w", err)
	}
	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, verbose)

	if sheetName == "" {
		sheetName = config.DefaultEnvConfig.SHEET_NAME
	}
	dateOrderFromFlag = cmd.Flags().Changed("date-order")
	if dateOrder == "" {
		dateOrder = config.DefaultEnvConfig.DATE_ORDER
	}
	order, err := xlsxport.ParseDateOrder(dateOrder)
	if err != nil {
		return err
	}

	start := time.Now()
	var rows, cols int
	switch {
	case query != "":
		rows, cols, err = convertQuery(ctx, outputPath, order)
	case configPath != "" || stream:
		rows, cols, err = convertWithConfig(inputPath, outputPath, order)
	default:
		rows, cols, err = convertCSV(ctx, inputPath, outputPath, order)
	}
	if err != nil {
		return err
	}

	if verbose {
		elapsed := time.Since(start)
		rate := float64(rows)
		if secs := elapsed.Seconds(); secs > 0 {
			rate = float64(rows) / secs
		}
		fmt.Fprintf(os.Stderr, "Converted %d rows in %v (%.0f rows/sec)\n", rows, elapsed, rate)
	}
	fmt.Printf("OK %d %d\n", rows, cols)
	return nil
}

// convertCSV is the plain path: no formatting config, every record
// classified and written through the stream writer.
func convertCSV(ctx context.Context, inputPath, outputPath string, order xlsxport.DateOrder) (int, int, error) {
	opts := []xlsxport.CSVOption{
		xlsxport.WithSheetName(sheetName),
		xlsxport.WithDateOrder(order),
	}
	if verbose {
		opts = append(opts, xlsxport.WithProgress(progressEvery, func(rows int) {
			fmt.Fprintf(os.Stderr, "  %d rows...\n", rows)
		}))
	}
	if parallel {
		return xlsxport.ConvertCSVParallel(ctx, inputPath, outputPath, opts...)
	}
	return xlsxport.ConvertCSV(inputPath, outputPath, opts...)
}

// convertWithConfig loads the CSV into a table and runs the full feature
// pipeline with options from the YAML config.
func convertWithConfig(inputPath, outputPath string, order xlsxport.DateOrder) (int, int, error) {
	global := xlsxport.DefaultOptions()
	var sheetCfg *xlsxport.SheetConfig
	if configPath != "" {
		fc, err := xlsxport.LoadConfig(configPath)
		if err != nil {
			return 0, 0, err
		}
		if fc.DateOrder != "" && !dateOrderFromFlag {
			if order, err = xlsxport.ParseDateOrder(fc.DateOrder); err != nil {
				return 0, 0, err
			}
		}
		if global, err = fc.GlobalOptions(); err != nil {
			return 0, 0, err
		}
		for i := range fc.Sheets {
			if fc.Sheets[i].Name == sheetName {
				sheetCfg = &fc.Sheets[i].SheetConfig
			}
		}
	}
	global.DateOrder = order

	withHeader := hasHeader || configPath != ""
	if configPath == "" {
		// Without a config file the header row exists only when --header
		// was given; synthetic column names must not be written out.
		global.Header = withHeader
	}
	table, err := xlsxport.TableFromCSV(inputPath, withHeader, order)
	if err != nil {
		return 0, 0, err
	}
	sheets := []xlsxport.Sheet{{Name: sheetName, Table: table, Config: sheetCfg}}
	if stream {
		return xlsxport.ExportTablesStream(outputPath, sheets, global)
	}
	return xlsxport.ExportTables(outputPath, sheets, global)
}

// convertQuery exports a SQL query result. The connection comes from
// --dsn or the DB_* environment.
func convertQuery(ctx context.Context, outputPath string, order xlsxport.DateOrder) (int, int, error) {
	var (
		db  xlsxport.DB
		err error
	)
	if dsn != "" {
		conn, cerr := database.ConnectDSN(ctx, dsn)
		if cerr != nil {
			return 0, 0, cerr
		}
		defer conn.Close()
		db = conn
	} else {
		env := config.DefaultEnvConfig
		conn, cerr := database.Connect(ctx, database.Config{
			Host:            env.DB_HOST,
			Port:            env.DB_PORT,
			User:            env.DB_USER,
			Password:        env.DB_PASSWORD,
			DBName:          env.DB_NAME,
			SSLMode:         env.DB_SSL_MODE,
			MaxOpenConns:    env.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    env.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: env.DB_CONN_MAX_LIFETIME,
		})
		if cerr != nil {
			return 0, 0, cerr
		}
		defer conn.Close()
		db = conn
	}

	table, err := xlsxport.QueryTable(ctx, db, query)
	if err != nil {
		return 0, 0, err
	}

	global := xlsxport.DefaultOptions()
	var sheetCfg *xlsxport.SheetConfig
	if configPath != "" {
		fc, err := xlsxport.LoadConfig(configPath)
		if err != nil {
			return 0, 0, err
		}
		if global, err = fc.GlobalOptions(); err != nil {
			return 0, 0, err
		}
		for i := range fc.Sheets {
			if fc.Sheets[i].Name == sheetName {
				sheetCfg = &fc.Sheets[i].SheetConfig
			}
		}
	}
	global.DateOrder = order

	sheets := []xlsxport.Sheet{{Name: sheetName, Table: table, Config: sheetCfg}}
	if stream {
		return xlsxport.ExportTablesStream(outputPath, sheets, global)
	}
	return xlsxport.ExportTables(outputPath, sheets, global)
}

func runServe(cmd *cobra.Command, args []string) error {
	app := bootstrap.NewApp()
	if err := app.Initialize(context.Background(), verbose); err != nil {
		return err
	}
	return app.Run()
}
