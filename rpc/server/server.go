package server

import (
	"fmt"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/tallykv/tally/lib/counter"
	"github.com/tallykv/tally/lib/shards"
	"github.com/tallykv/tally/lib/shards/engines/grove"
	"github.com/tallykv/tally/lib/store/dstore"
	"github.com/tallykv/tally/lib/store/lstore"
	"github.com/tallykv/tally/rpc/common"
	"github.com/tallykv/tally/rpc/serializer"
	"github.com/tallykv/tally/rpc/transport"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the counter it encapsulates and the adapter that handles
// requests for the counter
type serverShard struct {
	Counter counter.ICounter[string]
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := rpc.NewRPCServer(
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

	// Create shards map
	shardMap := xsync.NewMapOf[uint64, serverShard]()

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     shardMap,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
}

func (s *rpcServer) registerTransportHandler() {
	requestDuration := metrics.GetOrCreateHistogram(`tally_rpc_request_duration_seconds`)

	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		start := time.Now()

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     "shard not found",
			}
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = common.Message{
					MsgType: common.MsgTError,
					Err:     fmt.Sprintf("failed to deserialize request: %s", err),
				}
			} else {
				// Let the adapter handle the request
				respMsg = *shard.Adapter.Handle(&msg, shard.Counter)
			}
		}

		requestDuration.UpdateDuration(start)

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

	// Function to create a new database instance
	dbFactory := func() shards.ShardDB { return grove.NewGroveDB(nil) }

	// Parse the counter configuration shared by all shards
	policyName := s.config.Counter.Policy
	if policyName == "" {
		policyName = counter.DistributeInteger.String()
	}
	policy, err := counter.ParsePolicy(policyName)
	if err != nil {
		return err
	}
	counterConfig := counter.Config{
		ShardCount:     s.config.Counter.ShardCount,
		ReadFromShards: s.config.Counter.ReadFrom,
		Policy:         policy,
	}

	// Create the Dragonboat NodeHost
	var nodeHost *dragonboat.NodeHost
	if s.config.HasRemoteShard() {
		// Only create the NodeHost if we have remote shards
		nodeHost, err = dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
	}

	// Configure the timeout for the distributed store
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	// CREATE SHARDS

	/*
		Note: A single RPC Server can have any number of remote and or local shards.
		Each shard serves one set of counters. The following loop creates all the
		shards and stores them for the RPC server.
	*/

	for _, shardConfig := range s.config.Shards {

		// Case local counter
		if shardConfig.Type == common.ShardTypeLocalICounter {
			cnt, err := counter.New(lstore.NewLocalStore(dbFactory), counterConfig)
			if err != nil {
				return fmt.Errorf("failed to create local counter for shard %d: %w", shardConfig.ShardID, err)
			}

			s.shards.Store(shardConfig.ShardID, serverShard{
				Counter: cnt,
				Adapter: NewICounterServerAdapter(),
			})
			Logger.Infof("created local counter for shard %d", shardConfig.ShardID)

			// Case remote counter
		} else if shardConfig.Type == common.ShardTypeRemoteICounter {
			if nodeHost == nil {
				return fmt.Errorf("node host is nil, cannot create remote counter")
			}

			// Start Raft for the shard
			if err := nodeHost.StartConcurrentReplica(s.config.ClusterMembers, false, dstore.CreateStateMaschineFactory(dbFactory), s.config.ToDragonboatConfig(shardConfig.ShardID)); err != nil {
				Logger.Errorf("failed to start shard %v: %v", shardConfig.ShardID, err)
			}

			cnt, err := counter.New(dstore.NewDistributedStore(nodeHost, shardConfig.ShardID, timeout), counterConfig)
			if err != nil {
				return fmt.Errorf("failed to create remote counter for shard %d: %w", shardConfig.ShardID, err)
			}

			s.shards.Store(shardConfig.ShardID, serverShard{
				Counter: cnt,
				Adapter: NewICounterServerAdapter(),
			})
			Logger.Infof("created remote counter for shard %d", shardConfig.ShardID)
		} else {
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}
	}

	Logger.Infof("tally setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
