// Package obsipc is a Go client and host for driving a media engine across a
// process boundary.
//
// A host process owns every engine object: inputs, filters, transitions,
// scenes and their items, outputs, encoders, services, faders, volmeters,
// displays and modules. Clients hold proxies that name those objects by
// handle and forward each operation as a request. The host pushes a
// destroyed event for every object it tears down, before the reply of the
// call that caused it, so a proxy never observes a stale object as live.
//
// # Architecture Overview
//
//	obsipc/              Root package with the Caller and Connector interfaces
//	├── osn/             Client API: Session, proxies and factories
//	├── host/            Engine that owns the objects and serves requests
//	├── ipc/             Request/reply protocol, client and server
//	├── wire/            Message framing, payload types and enums
//	├── transport/       Unix socket, websocket and in-memory transports
//	├── resource/        Client handle table shared by proxy aliases
//	├── signal/          Ordered callback dispatch with lossy mailboxes
//	├── errors/          Structured error types
//	├── config/          YAML and dotenv configuration for osnctl
//	└── cmd/osnctl/      Host daemon, listing, raw calls and a TUI
//
// # Quick Start
//
// Host an engine in process and build a scene:
//
//	s := osn.NewSession(osn.Options{})
//	if err := s.Host(ctx, "studio"); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Disconnect()
//
//	cam, err := s.Inputs().Create(ctx, "dshow_input", "Camera", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	scene, err := s.Scenes().Create(ctx, "Main")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	item, err := scene.Add(ctx, cam, nil)
//
// Another process attaches with s.Connect(ctx, "studio") and sees the same
// objects through FromName lookups.
//
// # Reference Model
//
// Creating an object gives the creator one reference. Containers take their
// own: a scene item holds its source, a filter chain its filters, an output
// its encoders and service, a channel its source. Lookups add none.
// Release drops the caller's reference and Remove destroys the object
// outright. Either way every alias proxy of the object observes the change
// before the call returns.
//
// # Callbacks
//
// Scene, output, fader, volmeter and transition signals are delivered on
// per-signal goroutines in registration order. Volmeter and fader groups
// are lossy: when a callback falls behind, older snapshots are dropped.
package obsipc
