package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Submit and inspect pipeline jobs",
	}
	jobsCmd.AddCommand(newJobsSubmitCommand(ctx))
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsLogsCommand(ctx))
	return jobsCmd
}

func newJobsSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		owner  string
		file   string
		params domain.Params
		dlg    string
	)

	cmd := &cobra.Command{
		Use:   "submit [asset-id]",
		Short: "Run a job in this process and wait for it to finish",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (file == "") {
				return fmt.Errorf("pass either an asset id or --file")
			}
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			assetID := ""
			if file != "" {
				asset, err := a.jobs.AddAsset(cmd.Context(), file, owner)
				if err != nil {
					return err
				}
				assetID = asset.ID
				fmt.Fprintf(out, "Asset %s registered\n", asset.ID)
			} else {
				assetID = args[0]
			}

			params.Dialogue = domain.Dialogue(dlg)
			id, err := a.jobs.Create(cmd.Context(), assetID, params, owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Job %s submitted, waiting...\n", id)
			a.jobs.Wait()

			job, err := a.jobs.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printJob(out, job)
			if job.Status != domain.JobStatusDone {
				return fmt.Errorf("job %s %s; see `noteflix jobs logs %s`", id, job.Status, id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", jobs.DefaultOwner, "Owner of the job")
	cmd.Flags().StringVar(&file, "file", "", "Register this file as an asset first")
	cmd.Flags().StringVar(&params.Style, "style", "", "Narration style (default kenburns)")
	cmd.Flags().IntVar(&params.Duration, "duration", 0, "Target duration in seconds")
	cmd.Flags().StringVar(&dlg, "dialogue", "", "solo or duet")
	cmd.Flags().StringVar(&params.EncodeProfile, "profile", "", "Encode profile: balanced, heavy or insane")
	return cmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		owner string
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				owner = ""
			}
			list, err := a.jobs.ListRecent(cmd.Context(), owner, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, j := range list {
				rows = append(rows, []string{
					j.ID,
					j.Owner,
					string(j.Status),
					j.Params.EncodeProfile,
					string(j.Params.Dialogue),
					humanize.Time(j.CreatedAt),
					formatCompute(j.ComputeSeconds),
				})
			}
			headers := []string{"ID", "Owner", "Status", "Profile", "Dialogue", "Created", "Compute"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", jobs.DefaultOwner, "Only jobs of this owner")
	cmd.Flags().BoolVar(&all, "all", false, "Jobs of every owner")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows (capped by jobs.list_limit)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job with its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			job, err := a.jobs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printJob(out, job)

			chapters, err := a.jobs.Chapters(cmd.Context(), job.ID)
			if err != nil {
				return err
			}
			if len(chapters) > 0 {
				rows := make([][]string, 0, len(chapters))
				for _, ch := range chapters {
					rows = append(rows, []string{
						strconv.Itoa(ch.Index),
						ch.Title,
						formatSeconds(ch.StartSec),
						formatSeconds(ch.EndSec),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Chapter", "Start", "End"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
				))
			}
			return nil
		},
	}
}

func newJobsLogsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <job-id>",
		Short: "Print the job log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			rc, err := a.jobs.OpenLogs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer rc.Close()
			_, err = io.Copy(cmd.OutOrStdout(), rc)
			return err
		},
	}
}

func printJob(w io.Writer, job *domain.Job) {
	fields := [][2]string{
		{"Job", job.ID},
		{"Asset", job.AssetID},
		{"Owner", job.Owner},
		{"Status", string(job.Status)},
		{"Params", fmt.Sprintf("style=%s duration=%ds dialogue=%s profile=%s",
			job.Params.Style, job.Params.Duration, job.Params.Dialogue, job.Params.EncodeProfile)},
		{"Created", job.CreatedAt.Local().Format(time.DateTime)},
	}
	if job.StartedAt != nil {
		fields = append(fields, [2]string{"Started", job.StartedAt.Local().Format(time.DateTime)})
	}
	if job.FinishedAt != nil {
		fields = append(fields, [2]string{"Finished", job.FinishedAt.Local().Format(time.DateTime)})
		fields = append(fields, [2]string{"Compute", formatCompute(job.ComputeSeconds)})
	}
	if job.OutputPath != "" {
		fields = append(fields, [2]string{"Output", describeFile(job.OutputPath)})
	}
	if job.CaptionsPath != "" {
		fields = append(fields, [2]string{"Captions", job.CaptionsPath})
	}
	fields = append(fields, [2]string{"Logs", job.LogsPath})

	for _, f := range fields {
		fmt.Fprintf(w, "%-9s %s\n", f[0]+":", f[1])
	}
}

func describeFile(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return path + " (missing)"
	}
	return fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(info.Size())))
}

func formatCompute(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds) * time.Second).String()
}

func formatSeconds(sec float64) string {
	d := time.Duration(sec * float64(time.Second)).Round(100 * time.Millisecond)
	return d.String()
}
