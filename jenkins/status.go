package jenkins

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ServerStatus aggregates the Jenkins root, executor, and queue endpoints
// into one snapshot.
type ServerStatus struct {
	Mode            string `json:"mode"`
	NodeDescription string `json:"nodeDescription"`
	QuietingDown    bool   `json:"quietingDown"`
	NumExecutors    int    `json:"numExecutors"`
	BusyExecutors   int    `json:"busyExecutors"`
	TotalExecutors  int    `json:"totalExecutors"`
	QueueLength     int    `json:"queueLength"`
}

// GetServerStatus fetches the three status endpoints concurrently and joins
// the results. None of the three depends on another, so the fan-out is safe
// and strictly faster than sequential calls.
func (c *Client) GetServerStatus(ctx context.Context) (*ServerStatus, error) {
	var (
		root struct {
			Mode            string `json:"mode"`
			NodeDescription string `json:"nodeDescription"`
			QuietingDown    bool   `json:"quietingDown"`
			NumExecutors    int    `json:"numExecutors"`
		}
		computer struct {
			BusyExecutors  int `json:"busyExecutors"`
			TotalExecutors int `json:"totalExecutors"`
		}
		queue struct {
			Items []struct{} `json:"items"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.GetJSON(gctx, "/api/json", nil, &root) })
	g.Go(func() error { return c.GetJSON(gctx, "/computer/api/json", nil, &computer) })
	g.Go(func() error { return c.GetJSON(gctx, "/queue/api/json", nil, &queue) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ServerStatus{
		Mode:            root.Mode,
		NodeDescription: root.NodeDescription,
		QuietingDown:    root.QuietingDown,
		NumExecutors:    root.NumExecutors,
		BusyExecutors:   computer.BusyExecutors,
		TotalExecutors:  computer.TotalExecutors,
		QueueLength:     len(queue.Items),
	}, nil
}
