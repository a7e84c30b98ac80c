package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"caseline/internal/app"
	"caseline/internal/config"
	"caseline/internal/db"
	"caseline/internal/engine"
	"caseline/internal/migrate"
	"caseline/internal/registry"
	"caseline/internal/server"
	"caseline/internal/signing"
	"caseline/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "cl",
	Short: "Caseline CLI",
	Long: `Caseline is the case-management backend for legal referrals.
It balances incoming cases across case managers, tracks the 14-stage
workflow, surfaces time-based priorities and Action Center badges, and runs
the NDA signing workflow. The workspace lives in .caseline next to an
optional caseline.yml config.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CASELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier for audit entries")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(workspaceCmd())
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(managerCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(ndaCmd())
	rootCmd.AddCommand(badgesCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func newLogger() *zap.Logger {
	log, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := app.Open(workspace)
	if err != nil {
		return err
	}
	defer conn.Close()
	cfg, err := app.LoadConfig(workspace, "")
	if err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()
	e := engine.New(conn, cfg, log)
	if cfg.Registry.Endpoint != "" {
		e.Registry = registry.NewHTTPVerifier(cfg.Registry.Endpoint, time.Duration(cfg.Registry.TimeoutSeconds)*time.Second)
	}
	return fn(ctx, e)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func workspaceCmd() *cobra.Command {
	ws := &cobra.Command{Use: "workspace", Short: "Manage the workspace"}
	ws.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create caseline.yml and seed the demo roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := app.Open(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := app.InitWorkspace(cmd.Context(), workspace, "", conn); err != nil {
				return err
			}
			v, err := migrate.Version(conn)
			if err != nil {
				return err
			}
			fmt.Printf("Initialized workspace at %s (schema v%d, config: %s)\n", workspace, v, config.Path(workspace))
			return nil
		},
	})
	return ws
}

func caseCmd() *cobra.Command {
	c := &cobra.Command{Use: "case", Short: "Manage cases"}
	c.AddCommand(caseAssignCmd())
	c.AddCommand(caseListCmd())
	c.AddCommand(caseShowCmd())
	c.AddCommand(caseStageCmd())
	c.AddCommand(caseStatusCmd())
	c.AddCommand(caseVisitCmd())
	c.AddCommand(caseVisitDoneCmd())
	return c
}

func caseAssignCmd() *cobra.Command {
	var opts engine.ReferralOptions
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Submit a referral and auto-assign it to the least loaded manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, chosen, err := e.AssignCase(ctx, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"case": c, "assigned_to": chosen})
				}
				fmt.Printf("Case %s assigned to %s (%s, %d active cases before this one)\n", c.CasePin, chosen.Name, chosen.Pin, chosen.ActiveCount)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.CasePin, "case-pin", "", "unique case pin")
	cmd.Flags().StringVar(&opts.LawyerPin, "lawyer-pin", "", "referring lawyer pin")
	cmd.Flags().StringVar(&opts.LawyerName, "lawyer-name", "", "referring lawyer name")
	cmd.Flags().StringVar(&opts.ClientName, "client-name", "", "client name")
	cmd.Flags().StringVar(&opts.CaseType, "case-type", "", "case type")
	cmd.Flags().StringVar(&opts.ReferralData, "referral-data", "", "raw referral JSON")
	_ = cmd.MarkFlagRequired("case-pin")
	_ = cmd.MarkFlagRequired("lawyer-pin")
	_ = cmd.MarkFlagRequired("client-name")
	_ = cmd.MarkFlagRequired("case-type")
	return cmd
}

func caseListCmd() *cobra.Command {
	var opts engine.CaseListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases with priority and stage metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				list, err := e.ListCasesWithPriority(ctx, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(list)
				}
				if list.Degraded {
					fmt.Println("warning: case list degraded, showing empty result")
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Case", "Client", "Manager", "Stage", "%", "Priority", "Days"})
				for _, c := range list.Cases {
					manager := ""
					if c.AssignedCmName != nil {
						manager = *c.AssignedCmName
					}
					tw.AppendRow(table.Row{
						c.CasePin, c.ClientName, manager,
						c.StageName, c.Progress,
						c.Priority.Icon + " " + c.Priority.Label, c.Priority.DaysInStage,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.AssignedCmPin, "cm-pin", "", "filter by assigned manager")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by case status")
	cmd.Flags().IntVar(&opts.Stage, "stage", 0, "filter by workflow stage")
	cmd.Flags().StringVar(&opts.Action, "action", "", "worklist filter (urgent|today|ready|pending|attention|onTrack)")
	cmd.Flags().BoolVar(&opts.IncludeTerminal, "all", false, "include closed and cancelled cases")
	return cmd
}

func caseShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <case-pin>",
		Short: "Show one case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.Repo.GetCase(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(c)
				}
				fmt.Printf("%s  %s\n", c.CasePin, c.ClientName)
				fmt.Printf("  status: %s\n", c.CaseStatus)
				fmt.Printf("  stage:  %s (%d%%)\n", workflow.StageName(c.WorkflowStage), workflow.StagePercent(c.WorkflowStage))
				if c.AssignedCmName != nil {
					fmt.Printf("  manager: %s\n", *c.AssignedCmName)
				}
				visits, err := e.Repo.ListVisitsByCase(ctx, c.CasePin)
				if err != nil {
					return err
				}
				for _, v := range visits {
					fmt.Printf("  visit:  %s %s (%s)\n", v.VisitDate, v.Status, v.ID)
				}
				return nil
			})
		},
	}
	return cmd
}

func caseStageCmd() *cobra.Command {
	var stage int
	cmd := &cobra.Command{
		Use:   "stage <case-pin>",
		Short: "Advance the workflow stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.AdvanceStage(ctx, args[0], stage, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(c)
				}
				fmt.Printf("Case %s advanced to %s\n", c.CasePin, workflow.StageName(c.WorkflowStage))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&stage, "to", 0, "target stage (1-14)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func caseStatusCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "status <case-pin>",
		Short: "Update the case status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.UpdateCaseStatus(ctx, args[0], status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(c)
				}
				fmt.Printf("Case %s is now %s\n", c.CasePin, c.CaseStatus)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "to", "", "target status")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func caseVisitCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "visit <case-pin>",
		Short: "Schedule an INA visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.ScheduleVisit(ctx, args[0], date, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(v)
				}
				fmt.Printf("Visit %s scheduled for %s\n", v.ID, v.VisitDate)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "visit date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func caseVisitDoneCmd() *cobra.Command {
	var visitID string
	cmd := &cobra.Command{
		Use:   "visit-done <case-pin>",
		Short: "Mark an INA visit as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.CompleteVisit(ctx, args[0], visitID, viper.GetString("actor-id")); err != nil {
					return err
				}
				fmt.Printf("Visit %s completed\n", visitID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&visitID, "visit", "", "visit identifier")
	_ = cmd.MarkFlagRequired("visit")
	return cmd
}

func reportCmd() *cobra.Command {
	r := &cobra.Command{Use: "report", Short: "Manage INA reports"}
	r.AddCommand(reportShowCmd())
	r.AddCommand(reportReaderCmd())
	r.AddCommand(reportPaymentCmd())
	return r
}

func reportShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <case-pin>",
		Short: "Show the INA report for a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, err := e.Repo.GetReportByCase(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				fmt.Printf("%s  payment: %s\n", rep.ID, rep.PaymentStatus)
				if rep.FirstReaderPin != nil {
					fmt.Printf("  first reader:  %s\n", *rep.FirstReaderPin)
				}
				if rep.SecondReaderPin != nil {
					fmt.Printf("  second reader: %s\n", *rep.SecondReaderPin)
				}
				return nil
			})
		},
	}
	return cmd
}

func reportReaderCmd() *cobra.Command {
	var second bool
	cmd := &cobra.Command{
		Use:   "reader <case-pin>",
		Short: "Assign a reader to the INA report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, err := e.AssignReader(ctx, args[0], second, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				pin := rep.FirstReaderPin
				if second {
					pin = rep.SecondReaderPin
				}
				fmt.Printf("Reader %s assigned to report %s\n", *pin, rep.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&second, "second", false, "assign the second reader slot")
	return cmd
}

func reportPaymentCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "payment <case-pin>",
		Short: "Update the report payment status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, err := e.UpdateReportPayment(ctx, args[0], status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				fmt.Printf("Report %s payment status is now %s\n", rep.ID, rep.PaymentStatus)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "to", "", "payment status (pending|pendingApproval|approved|paid)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func managerCmd() *cobra.Command {
	m := &cobra.Command{Use: "manager", Short: "Manage case managers"}
	m.AddCommand(managerListCmd())
	m.AddCommand(managerOnboardCmd())
	m.AddCommand(managerFeaturesCmd())
	m.AddCommand(managerApproveCmd())
	return m
}

func managerListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List case managers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				managers, err := e.Repo.ListManagers(ctx, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(managers)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Pin", "Name", "Status", "Compliance", "NDA"})
				for _, m := range managers {
					nda := "unsigned"
					if m.NdaSigned {
						nda = "signed"
					}
					compliance := "pending"
					if m.ComplianceApproved {
						compliance = "approved"
					}
					tw.AppendRow(table.Row{m.Pin, m.Name, m.Status, compliance, nda})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func managerOnboardCmd() *cobra.Command {
	var pin, name string
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Register a case manager (verifies medical registration when configured)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.OnboardManager(ctx, pin, name)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(m)
				}
				fmt.Printf("Manager %s (%s) onboarded\n", m.Name, m.Pin)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "manager pin")
	cmd.Flags().StringVar(&name, "name", "", "manager name")
	_ = cmd.MarkFlagRequired("pin")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func managerFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features <pin>",
		Short: "Show workspace feature flags for a manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				feats, err := e.WorkspaceFeatures(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(feats)
			})
		},
	}
	return cmd
}

func managerApproveCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "approve <pin>",
		Short: "Set or revoke compliance approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.Repo.SetComplianceApproved(ctx, args[0], !revoke); err != nil {
					return err
				}
				state := "approved"
				if revoke {
					state = "revoked"
				}
				fmt.Printf("Compliance %s for %s\n", state, args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke instead of approve")
	return cmd
}

func ndaCmd() *cobra.Command {
	n := &cobra.Command{Use: "nda", Short: "NDA signing status"}
	n.AddCommand(&cobra.Command{
		Use:   "status <pin>",
		Short: "Show a manager's NDA signature status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m, err := e.Repo.GetManager(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"pin":          m.Pin,
						"nda_signed":   m.NdaSigned,
						"signed_at":    m.NdaSignedAt,
						"pdf_path":     m.NdaPdfPath,
						"content_hash": m.NdaContentHash,
					})
				}
				if !m.NdaSigned {
					fmt.Printf("%s has not signed the NDA\n", m.Pin)
					return nil
				}
				fmt.Printf("%s signed the NDA", m.Pin)
				if m.NdaSignedAt != nil {
					fmt.Printf(" at %s", *m.NdaSignedAt)
				}
				fmt.Println()
				if m.NdaPdfPath != nil {
					fmt.Printf("  artifact: %s\n", *m.NdaPdfPath)
				}
				if m.NdaContentHash != nil {
					fmt.Printf("  hash:     %s\n", *m.NdaContentHash)
				}
				return nil
			})
		},
	})
	return n
}

func badgesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "badges",
		Short: "Show Action Center badge counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				counts := e.BadgeCounts(ctx)
				if viper.GetBool("json") {
					return printJSON(counts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Badge", "Count"})
				tw.AppendRow(table.Row{"urgent", counts.Urgent})
				tw.AppendRow(table.Row{"today", counts.Today})
				tw.AppendRow(table.Row{"ready", counts.Ready})
				tw.AppendRow(table.Row{"pending", counts.Pending})
				tw.AppendRow(table.Row{"approvalQueue", counts.ApprovalQueue})
				tw.Render()
				if counts.Degraded {
					fmt.Println("warning: counts degraded to zero after a query failure")
				}
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Case activity log"}
	var limit int
	tail := &cobra.Command{
		Use:   "tail <case-pin>",
		Short: "Show recent activity for a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.Audit.Tail(ctx, args[0], limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				for _, entry := range entries {
					fmt.Printf("%s  %-14s %s (%s)\n", entry.PerformedAt, entry.Type, entry.Description, entry.PerformedBy)
				}
				return nil
			})
		},
	}
	tail.Flags().IntVar(&limit, "limit", 20, "number of entries")
	lg.AddCommand(tail)
	return lg
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := app.Open(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			cfg, err := app.LoadConfig(workspace, "")
			if err != nil {
				return err
			}
			log := newLogger()
			defer log.Sync()
			e := engine.New(conn, cfg, log)
			if cfg.Registry.Endpoint != "" {
				e.Registry = registry.NewHTTPVerifier(cfg.Registry.Endpoint, time.Duration(cfg.Registry.TimeoutSeconds)*time.Second)
			}

			pdf := signing.NewPDFService(os.Getenv("CASELINE_PDF_ENDPOINT"), 30*time.Second)
			wf := signing.NewWorkflow(e.Repo, cfg, pdf, pdf, log)

			authCfg := server.AuthConfig{JWTSecret: os.Getenv("CASELINE_JWT_SECRET"), Logger: log}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("CASELINE_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, Signing: wf, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}

			sweepCtx, stopSweep := context.WithCancel(cmd.Context())
			defer stopSweep()
			go wf.Sessions.Run(sweepCtx, time.Duration(cfg.Signing.SweepSeconds)*time.Second, log)

			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			log.Info("serving caseline api", zap.String("addr", addr), zap.String("base_path", basePath))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}
