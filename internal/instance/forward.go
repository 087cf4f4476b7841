package instance

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/surrealist/surrealist/internal/startup"
)

// Forward hands args and cwd to the running instance and waits for it to
// acknowledge them.
func Forward(ctx context.Context, paths PathResolver, args []string, cwd string, cfg startup.RetryConfig, logger zerolog.Logger) error {
	return startup.WithRetry(ctx, "forward to running instance", cfg, func() error {
		return forwardOnce(ctx, paths.InstanceAddress(), args, cwd)
	}, &logger)
}

func forwardOnce(ctx context.Context, addrPath string, args []string, cwd string) error {
	// #nosec G304 - path comes from the resolver
	data, err := os.ReadFile(addrPath)
	if err != nil {
		return fmt.Errorf("read instance endpoint: %w", err)
	}

	var ep endpoint
	if err := json.Unmarshal(data, &ep); err != nil {
		return fmt.Errorf("decode instance endpoint: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, connDeadline)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", ep.Address)
	if err != nil {
		return err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connDeadline))

	line, err := json.Marshal(Payload{Token: ep.Token, Args: args, Cwd: cwd})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if _, err := conn.Write(append(line, '\n')); err != nil {
		return err
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply != replyOK {
		return fmt.Errorf("running instance refused launch: %s", reply)
	}
	return nil
}
