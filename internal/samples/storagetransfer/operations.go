// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storagetransfer

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	st "cloud.google.com/go/storagetransfer/apiv1"
	"cloud.google.com/go/storagetransfer/apiv1/storagetransferpb"
	"github.com/dustin/go-humanize"

	"github.com/staranto/gcpctl/internal/gcp"
)

// CheckLatestTransferOperation prints the metadata of the job's most recent
// operation, read through the operations client.
func CheckLatestTransferOperation(ctx context.Context, w io.Writer, c *st.Client, project, job string) error {
	j, err := c.GetTransferJob(ctx, &storagetransferpb.GetTransferJobRequest{
		JobName:   job,
		ProjectId: project,
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Transfer job %s not found.\n", job)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get transfer job %s: %w", job, err)
	}

	name := j.GetLatestOperationName()
	if name == "" {
		fmt.Fprintf(w, "Transfer job %s has not ran yet.\n", job)
		return nil
	}

	op, err := c.LROClient.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: name})
	if err != nil {
		return fmt.Errorf("failed to get operation %s: %w", name, err)
	}
	var meta storagetransferpb.TransferOperation
	if err := op.GetMetadata().UnmarshalTo(&meta); err != nil {
		return fmt.Errorf("failed to decode operation %s: %w", name, err)
	}

	fmt.Fprintf(w, "Latest transfer operation for %s is %s\n", job, name)
	fmt.Fprintf(w, "Status: %s\n", meta.GetStatus())
	fmt.Fprintf(w, "Done: %t\n", op.GetDone())
	if t := meta.GetStartTime(); t != nil {
		fmt.Fprintf(w, "Started: %s\n", t.AsTime().Format("2006-01-02T15:04:05Z07:00"))
	}
	if t := meta.GetEndTime(); t != nil {
		fmt.Fprintf(w, "Ended: %s\n", t.AsTime().Format("2006-01-02T15:04:05Z07:00"))
	}
	counters := meta.GetCounters()
	fmt.Fprintf(w, "Objects copied: %d of %d\n", counters.GetObjectsCopiedToSink(), counters.GetObjectsFoundFromSource())
	fmt.Fprintf(w, "Bytes copied: %s of %s\n",
		humanize.Bytes(uint64(counters.GetBytesCopiedToSink())), humanize.Bytes(uint64(counters.GetBytesFoundFromSource())))
	for _, e := range meta.GetErrorBreakdowns() {
		fmt.Fprintf(w, "Errors: %s x%d\n", e.GetErrorCode(), e.GetErrorCount())
	}
	return nil
}
