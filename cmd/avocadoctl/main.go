// Command avocadoctl inspects model artifacts and runs offline predictions
// with the same parsing rules as the web form.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/fairyhunter13/avocado-price-predictor/internal/config"
	"github.com/fairyhunter13/avocado-price-predictor/internal/mlmodel"
	"github.com/fairyhunter13/avocado-price-predictor/internal/model"
	"github.com/fairyhunter13/avocado-price-predictor/internal/obs"
	"github.com/fairyhunter13/avocado-price-predictor/internal/predictor"
	"github.com/fairyhunter13/avocado-price-predictor/internal/regions"
)

func main() {
	config.LoadDotenv()
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		obs.Logger.Error("avocadoctl_failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	cfg := config.Load()
	return &cli.App{
		Name:   "avocadoctl",
		Usage:  "inspect avocado model artifacts and run predictions",
		Writer: out,
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				obs.InitLogger(cfg.LogLevel)
			}
			return nil
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log to stdout"},
		},
		Commands: []*cli.Command{
			{
				Name:  "regions",
				Usage: "list the regions offered by the form",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dataset", Value: cfg.DatasetPath, EnvVars: []string{"DATASET_PATH"}},
					&cli.StringFlag{Name: "column", Value: cfg.RegionColumn, EnvVars: []string{"REGION_COLUMN"}},
					&cli.StringFlag{Name: "dsn", Value: cfg.RegionsDSN, EnvVars: []string{"REGIONS_DSN"}},
					&cli.StringFlag{Name: "table", Value: cfg.RegionsTable, EnvVars: []string{"REGIONS_TABLE"}},
				},
				Action: regionsAction,
			},
			{
				Name:      "inspect",
				Usage:     "describe a model artifact",
				ArgsUsage: "<artifact.json>",
				Action:    inspectAction,
			},
			{
				Name:  "predict",
				Usage: "predict type and average price for one record",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "classifier", Value: cfg.ClassifierModelPath, EnvVars: []string{"CLASSIFIER_MODEL_PATH"}},
					&cli.StringFlag{Name: "regressor", Value: cfg.RegressorModelPath, EnvVars: []string{"REGRESSOR_MODEL_PATH"}},
					&cli.StringFlag{Name: "region", Required: true},
					&cli.StringSliceFlag{Name: "set", Usage: "feature value as name=value, repeatable"},
				},
				Action: predictAction,
			},
		},
		DisableSliceFlagSeparator: true,
	}
}

func regionsAction(c *cli.Context) error {
	ctx := c.Context
	var src regions.Source = regions.CSVSource{Path: c.String("dataset"), Column: c.String("column")}
	if dsn := c.String("dsn"); dsn != "" {
		pg, err := regions.NewPostgresSource(ctx, dsn, c.String("table"), c.String("column"))
		if err != nil {
			return err
		}
		defer pg.Close()
		src = pg
	}
	names, err := regions.Load(ctx, src)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(c.App.Writer, n)
	}
	return nil
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("inspect needs exactly one artifact path")
	}
	p, err := mlmodel.Load(c.Args().First())
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "name:    %s\n", p.Name())
	fmt.Fprintf(w, "task:    %s\n", p.Task())
	fmt.Fprintf(w, "width:   %d\n", p.Width())
	fmt.Fprintf(w, "columns: %s\n", strings.Join(p.Columns(), ", "))
	if p.Task() == mlmodel.TaskClassification {
		fmt.Fprintf(w, "classes: %s\n", strings.Join(p.Classes(), ", "))
	}
	return nil
}

func predictAction(c *cli.Context) error {
	fields, err := parseSets(c.StringSlice("set"))
	if err != nil {
		return err
	}
	fields[model.RegionField] = c.String("region")

	clf, err := mlmodel.LoadTask(c.String("classifier"), mlmodel.TaskClassification)
	if err != nil {
		return err
	}
	reg, err := mlmodel.LoadTask(c.String("regressor"), mlmodel.TaskRegression)
	if err != nil {
		return err
	}
	svc := predictor.New(clf, reg, nil)
	p, err := svc.Submit(c.Context, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "type:  %s\nprice: %s\n", p.Category, model.FormatPrice(p.Price))
	return nil
}

// parseSets turns repeated name=value flags into form fields. Values are left
// unparsed so the service applies its own validation.
func parseSets(sets []string) (model.Fields, error) {
	fields := make(model.Fields, len(sets)+1)
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --set %q, want name=value", s)
		}
		fields[strings.TrimSpace(name)] = value
	}
	return fields, nil
}
