package server

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/croftdb/croft/lib/logger"
	"github.com/croftdb/croft/lib/record"
	"github.com/croftdb/croft/lib/store"
	"github.com/croftdb/croft/rpc/common"
	"github.com/croftdb/croft/rpc/serializer"
	"github.com/croftdb/croft/rpc/transport"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	registry   *record.Registry
	store      store.IDocStore
	adapter    IRPCServerAdapter
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Decode the request
		err := s.serializer.Deserialize(req, &msg)

		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to deserialize request: %s", err),
			}
		} else {
			// Let the adapter handle the request
			respMsg = *s.adapter.Handle(&msg, s.store)
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to serialize response: %s", err),
			}
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init logger
	common.InitLoggers(s.config)

	// Load the record types the store will accept
	s.registry = record.NewRegistry()
	if err := LoadSchemas(s.config.SchemaFile, s.registry); err != nil {
		return err
	}

	// Create the document store
	docStore, err := store.New(store.Options{
		Root:     s.config.DataDir,
		Registry: s.registry,
	})
	if err != nil {
		return fmt.Errorf("failed to create document store: %w", err)
	}
	s.store = docStore
	s.adapter = NewDocStoreServerAdapter(s.registry)

	Logger.Infof("document store setup completed successfully")

	// Shut down cleanly on SIGINT/SIGTERM: reject new writes first, then
	// drain in-flight writes before releasing the indexes
	go s.handleSignals()

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// handleSignals blocks until a termination signal arrives, then halts and
// closes the store
func (s *rpcServer) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	Logger.Infof("received signal %s, shutting down", sig)

	s.store.Halt()
	if err := s.store.Close(); err != nil {
		Logger.Errorf("failed to close store: %v", err)
		os.Exit(1)
	}

	Logger.Infof("shutdown complete")
	os.Exit(0)
}

// Serve starts the RPC server
// This function will also initialize the server plus the store and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
