package consul

import (
	"fmt"
	"os"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// NewClient connects to the consul agent named by CONSUL_HTTP_HOST and
// CONSUL_HTTP_PORT.
func NewClient() (*consulapi.Client, error) {
	host := os.Getenv("CONSUL_HTTP_HOST")
	port := os.Getenv("CONSUL_HTTP_PORT")
	if host == "" || port == "" {
		return nil, fmt.Errorf("consul env variables are not set")
	}

	config := consulapi.DefaultConfig()
	config.Address = host + ":" + port

	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("creating consul client: %w", err)
	}
	return client, nil
}

// Register registers this instance with the consul agent; the health
// check keeps dead instances out of discovery.
func (r *Registration) Register(client *consulapi.Client) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      r.ServiceId,
		Name:    r.ServiceName,
		Address: r.Address,
		Port:    r.Port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", r.Address, r.Port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("registering service with consul: %w", err)
	}
	return nil
}

// Deregister removes this instance from the consul agent.
func (r *Registration) Deregister(client *consulapi.Client) error {
	if err := client.Agent().ServiceDeregister(r.ServiceId); err != nil {
		return fmt.Errorf("deregistering service from consul: %w", err)
	}
	return nil
}

type Registration struct {
	ServiceId   string
	ServiceName string
	Address     string
	Port        int
}

// NewRegistration builds the registration from the environment.
func NewRegistration(serviceId string) (*Registration, error) {
	name := os.Getenv("SERVICE_NAME")
	address := os.Getenv("SERVICE_HOST")
	portStr := os.Getenv("APP_PORT")
	if name == "" || address == "" || portStr == "" {
		return nil, fmt.Errorf("service registration env variables are not set")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	return &Registration{
		ServiceId:   serviceId,
		ServiceName: name,
		Address:     address,
		Port:        port,
	}, nil
}
