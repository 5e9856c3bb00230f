package main

import (
	"log"
	"net/http"
	"os"

	_ "jasper-mate-utils/src/server/cardkinds"
	"jasper-mate-utils/src/server/config"
	"jasper-mate-utils/src/server/httpapi"
	"jasper-mate-utils/src/server/tcp"
	"jasper-mate-utils/src/server/util"
)

const version = "1.0.0"

func main() {
	os.Args[0] = "jasper-mate-utils"

	api := httpapi.NewApp(version)

	if path := config.GetNodePath(); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("boot: failed to read node document %s: %v", path, err)
		} else if err := api.LoadNode(raw); err != nil {
			log.Printf("boot: failed to load node document %s: %v", path, err)
		} else {
			log.Printf("boot: loaded node from %s", path)
		}
	}

	tcpServer := tcp.NewTCPServer("9081", api.NodeOrNil(), version, config.GetConfig().ServeExternally)
	api.OnNodeChanged(tcpServer.SetNode)
	if err := tcpServer.Start(); err != nil {
		log.Printf("Warning: Failed to start TCP server: %v", err)
	}

	bind := util.LoadEnvLocal("BIND_ADDRESS")
	if bind == "" {
		bind = config.GetBindAddress()
	}

	log.Printf("fxt command surface starting on %s", bind)
	log.Fatal(http.ListenAndServe(bind, api.Router()))
}
