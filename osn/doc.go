// Package osn is the client side of the engine protocol: typed proxies for
// remote sources, scenes, outputs and the rest, the factories that create
// them, and the Session that owns a connection.
//
// A proxy wraps one handle. Handles are registered in a per-connection
// table keyed by id and kind, so every proxy aliasing the same remote object
// shares one validity cell. When the host destroys an object it pushes a
// destroyed event before the reply of the call that caused it, and the
// session marks the cell invalid; every alias then fails fast with an
// InvalidHandle error without another round trip.
//
// Reference counting follows the host: creation and containment hold
// references, lookups do not.
//
//	s := osn.NewSession(osn.Options{})
//	if err := s.Host(ctx, "studio"); err != nil {
//	    return err
//	}
//	defer s.Disconnect()
//
//	cam, err := s.Inputs().Create(ctx, "dshow_input", "camera", nil)
//	scene, err := s.Scenes().Create(ctx, "main")
//	item, err := scene.Add(ctx, cam, nil)
//
// Callbacks (scene signals, fader and volmeter updates, output start/stop)
// run on the session's signal dispatcher, one goroutine per handle and
// signal, and are detached with the token they return.
package osn
