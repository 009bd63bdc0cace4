// Command tmtctl runs the task generator and the composition calculator
// from the shell, without the sheets.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tmtops/api/internal/config"
	"tmtops/api/internal/costing"
	"tmtops/api/internal/records"
	"tmtops/api/internal/sheets"
	"tmtops/api/internal/tasks"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.SheetTimezone != "" {
		loc, err := time.LoadLocation(cfg.SheetTimezone)
		if err != nil {
			fmt.Fprintln(os.Stderr, "SHEET_TIMEZONE:", err)
			os.Exit(1)
		}
		sheets.SheetLocation = loc
	}
	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "tmtctl",
		Short:         "TMT production helpers: task schedules, composition costs, CN numbers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newTasksCmd(cfg), newCostCmd(), newNextCNCmd())
	return root
}

func newTasksCmd(cfg config.Config) *cobra.Command {
	var (
		start, frequency, calendarPath, doer, title string
		years                                       int
		strict                                      bool
	)
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the due dates a delegation task would get",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := tasks.Request{Doer: doer, Title: title}
			if start != "" {
				d, err := sheets.ParseDate(start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				req.Start = d
			}
			f, ok := tasks.ParseFrequency(frequency)
			if !ok {
				return fmt.Errorf("--frequency: unknown frequency %q", frequency)
			}
			req.Frequency = f

			var cal tasks.Calendar
			if calendarPath != "" {
				fh, err := os.Open(calendarPath)
				if err != nil {
					return err
				}
				defer fh.Close()
				if cal, err = readCalendar(fh); err != nil {
					return fmt.Errorf("%s: %w", calendarPath, err)
				}
			}

			occ, err := tasks.Generate(req, cal, tasks.Options{HorizonYears: years, StrictCalendar: strict})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, o := range occ {
				fmt.Fprintln(out, o.DueDate())
			}
			fmt.Fprintf(out, "%d occurrence(s), sheet %s\n", len(occ), records.DelegationSheet(f))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Start date (DD/MM/YYYY)")
	cmd.Flags().StringVar(&frequency, "frequency", "one-time", "one-time|daily|weekly|fortnightly|monthly|quarterly|yearly|end-of-1st-week...")
	cmd.Flags().StringVar(&calendarPath, "calendar", "", "File with one working day per line")
	cmd.Flags().StringVar(&doer, "doer", "cli", "Doer recorded on the task")
	cmd.Flags().StringVar(&title, "title", "cli", "Task title")
	cmd.Flags().IntVar(&years, "years", cfg.TaskHorizonYears, "Horizon in years")
	cmd.Flags().BoolVar(&strict, "strict", cfg.StrictCalendar, "Fail on an empty calendar instead of using raw dates")
	return cmd
}

// readCalendar reads one date per line; blank lines and lines starting with
// # are skipped.
func readCalendar(r io.Reader) (tasks.Calendar, error) {
	cal := tasks.Calendar{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		d, err := sheets.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cal[d.Format(tasks.DateLayout)] = struct{}{}
	}
	return cal, sc.Err()
}

type costFile struct {
	Rows []struct {
		Particulars string          `json:"particulars"`
		Yield       decimal.Decimal `json:"yield"`
		Fem         decimal.Decimal `json:"fem"`
		Price       decimal.Decimal `json:"price"`
		Percent     decimal.Decimal `json:"percent"`
	} `json:"rows"`
}

func newCostCmd() *cobra.Command {
	var path, mfg, days, transport, selling string
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Compute composition totals from a JSON file of material rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			var f costFile
			if err := json.Unmarshal(raw, &f); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			rows := make([]costing.MaterialRow, len(f.Rows))
			for i, r := range f.Rows {
				rows[i] = costing.MaterialRow{
					Particulars: r.Particulars,
					Yield1:      r.Yield,
					Fem1:        r.Fem,
					Price1:      r.Price,
					Percent:     r.Percent,
				}
			}

			var in costing.Inputs
			for _, p := range []struct {
				flag string
				raw  string
				dst  *decimal.Decimal
			}{
				{"--mfg", mfg, &in.ManufacturingCost},
				{"--days", days, &in.InterestDays},
				{"--transport", transport, &in.Transporting},
			} {
				d, err := costing.ParseAmount(p.raw)
				if err != nil {
					return fmt.Errorf("%s: %w", p.flag, err)
				}
				*p.dst = d
			}
			if strings.TrimSpace(selling) != "" {
				sp, err := costing.ParseAmount(selling)
				if err != nil {
					return fmt.Errorf("--selling: %w", err)
				}
				in.SellingPrice = &sp
			}

			t, err := costing.Compute(rows, in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(t.View())
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "JSON file: {\"rows\":[{particulars,yield,fem,price,percent}]}")
	cmd.Flags().StringVar(&mfg, "mfg", "", "Manufacturing cost")
	cmd.Flags().StringVar(&days, "days", "", "Interest days")
	cmd.Flags().StringVar(&transport, "transport", "", "Transporting cost")
	cmd.Flags().StringVar(&selling, "selling", "", "Selling price override")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newNextCNCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-cn [existing numbers...]",
		Short: "Print the composition number that follows the given ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), costing.NextNumber(args))
			return nil
		},
	}
}
