package registry

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/logger"
)

// ServiceRegistry registers this instance into etcd under /services/<name>/<id>.
type ServiceRegistry struct {
	client      *clientv3.Client
	serviceName string
	serviceID   string
	serviceAddr string
	ttl         int64
	leaseID     clientv3.LeaseID
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServiceRegistry creates a registry bound to the given address.
func NewServiceRegistry(etcdCfg config.EtcdConfig, svcCfg config.ServiceRegistryConfig, serviceAddr string) (*ServiceRegistry, error) {
	if len(etcdCfg.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints are required for service registration")
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   etcdCfg.Endpoints,
		DialTimeout: etcdCfg.DialTimeout,
		Username:    etcdCfg.Username,
		Password:    etcdCfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ttl := int64(svcCfg.TTL / time.Second)
	if ttl <= 0 {
		ttl = 30
	}
	serviceID := svcCfg.ServiceID
	if serviceID == "" {
		serviceID = serviceAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceRegistry{
		client:      client,
		serviceName: svcCfg.ServiceName,
		serviceID:   serviceID,
		serviceAddr: serviceAddr,
		ttl:         ttl,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Key returns the etcd key of this instance.
func (r *ServiceRegistry) Key() string {
	return fmt.Sprintf("/services/%s/%s", r.serviceName, r.serviceID)
}

// Register grants a lease, writes the instance key and keeps the lease alive.
func (r *ServiceRegistry) Register() error {
	leaseResp, err := r.client.Grant(r.ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	r.leaseID = leaseResp.ID

	if _, err := r.client.Put(r.ctx, r.Key(), r.serviceAddr, clientv3.WithLease(r.leaseID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	ch, err := r.client.KeepAlive(r.ctx, r.leaseID)
	if err != nil {
		return fmt.Errorf("failed to keep alive lease: %w", err)
	}
	go func() {
		for {
			select {
			case <-r.ctx.Done():
				return
			case ka := <-ch:
				if ka == nil {
					logger.Warnf("etcd keep alive channel closed key=%s", r.Key())
					return
				}
			}
		}
	}()

	logger.Infof("Service registered key=%s addr=%s", r.Key(), r.serviceAddr)
	return nil
}

// Deregister revokes the lease and closes the client.
func (r *ServiceRegistry) Deregister() error {
	r.cancel()
	if r.leaseID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
			logger.Warnf("Failed to revoke lease key=%s error=%v", r.Key(), err)
		}
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	logger.Infof("Service deregistered key=%s", r.Key())
	return nil
}
