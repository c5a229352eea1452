// Package etcd registers the HTTP endpoint in etcd for Traefik discovery.
package etcd

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	clientv3 "go.etcd.io/etcd/client/v3"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	etcdopts "github.com/kart-io/sentinel-rag/pkg/options/etcd"
)

// Registrar handles service registration for Traefik via etcd.
// It implements server.Runnable: Start registers, Stop revokes the lease.
type Registrar struct {
	opts        *etcdopts.Options
	serviceName string

	mu      sync.Mutex
	client  *clientv3.Client
	leaseID clientv3.LeaseID
	cancel  context.CancelFunc
}

// NewRegistrar creates a new Registrar.
func NewRegistrar(opts *etcdopts.Options, serviceName string) (*Registrar, error) {
	if opts == nil {
		return nil, errors.New("etcd options cannot be nil")
	}
	if serviceName == "" {
		return nil, errors.New("service name cannot be empty")
	}
	if err := utilerrors.NewAggregate(opts.Validate()); err != nil {
		return nil, fmt.Errorf("invalid etcd options: %w", err)
	}
	return &Registrar{opts: opts, serviceName: serviceName}, nil
}

// Name returns the component name.
func (r *Registrar) Name() string {
	return "etcd-registrar"
}

// InstanceID derives a stable identifier for the advertised address.
func InstanceID(addr string) string {
	hash := md5.Sum([]byte(addr))
	return hex.EncodeToString(hash[:])
}

// RegistrationKeys returns the Traefik KV layout for one instance:
//
//	traefik/http/routers/<name>/rule -> <rule>
//	traefik/http/routers/<name>/service -> <name>
//	traefik/http/services/<name>/loadbalancer/servers/<id>/url -> <addr>
func RegistrationKeys(serviceName, rule, addr string) map[string]string {
	keys := make(map[string]string, 3)
	keys[fmt.Sprintf("traefik/http/routers/%s/rule", serviceName)] = rule
	keys[fmt.Sprintf("traefik/http/routers/%s/service", serviceName)] = serviceName
	keys[fmt.Sprintf("traefik/http/services/%s/loadbalancer/servers/%s/url", serviceName, InstanceID(addr))] = addr
	return keys
}

// Start connects to etcd and writes the registration keys under a lease.
func (r *Registrar) Start(ctx context.Context) error {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   r.opts.Endpoints,
		Username:    r.opts.Username,
		Password:    r.opts.Password,
		DialTimeout: r.opts.DialTimeout,
		Context:     ctx,
	})
	if err != nil {
		return fmt.Errorf("failed to create etcd client: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)
	defer cancel()

	leaseResp, err := client.Grant(reqCtx, r.opts.LeaseTTL)
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to grant lease: %w", err)
	}

	kaCtx, kaCancel := context.WithCancel(context.Background())
	ch, err := client.KeepAlive(kaCtx, leaseResp.ID)
	if err != nil {
		kaCancel()
		_ = client.Close()
		return fmt.Errorf("failed to keep alive lease: %w", err)
	}
	go func() {
		for range ch {
		}
		if kaCtx.Err() == nil {
			logger.Warn("ETCD KeepAlive channel closed")
		}
	}()

	ops := make([]clientv3.Op, 0, 3)
	for k, v := range RegistrationKeys(r.serviceName, r.opts.Rule, r.opts.AdvertiseAddr) {
		ops = append(ops, clientv3.OpPut(k, v, clientv3.WithLease(leaseResp.ID)))
	}
	if _, err := client.Txn(reqCtx).Then(ops...).Commit(); err != nil {
		kaCancel()
		_, _ = client.Revoke(context.Background(), leaseResp.ID)
		_ = client.Close()
		return fmt.Errorf("failed to register service keys: %w", err)
	}

	r.mu.Lock()
	r.client = client
	r.leaseID = leaseResp.ID
	r.cancel = kaCancel
	r.mu.Unlock()

	logger.Infow("Service registered to ETCD for Traefik",
		"service", r.serviceName,
		"addr", r.opts.AdvertiseAddr,
		"rule", r.opts.Rule,
		"lease_ttl", r.opts.LeaseTTL,
	)
	return nil
}

// Stop deregisters the service and closes the client.
func (r *Registrar) Stop(ctx context.Context) error {
	r.mu.Lock()
	client, leaseID, cancel := r.client, r.leaseID, r.cancel
	r.client, r.leaseID, r.cancel = nil, 0, nil
	r.mu.Unlock()

	if client == nil {
		return nil
	}
	cancel()

	revokeCtx, done := context.WithTimeout(ctx, 5*time.Second)
	defer done()
	_, revokeErr := client.Revoke(revokeCtx, leaseID)
	closeErr := client.Close()
	logger.Info("Service deregistered from ETCD")
	return errors.Join(revokeErr, closeErr)
}
