// Package inject registers constructors from declarative metadata and binds
// them into tagged containers by key, so a process can wire its service
// graph without a central list of providers.
//
// # Overview
//
// A package registers its constructors while it initialises:
//
//	var _ = inject.Register(NewMongoDatabase)
//	var _ = inject.Register(NewLogger, inject.Name("logger"), inject.Kind(inject.Factory))
//
// Nothing is bound at that point. At start-up the process creates a
// container with its tags and discovers a package tree:
//
//	c := inject.NewContainer(inject.WithTags("DPB"))
//	report, err := inject.Discover("github.com/acme/app/internal", c)
//
// and then resolves its root object, which resolves the rest of the graph:
//
//	app, err := inject.Resolve[*Application](c, "application")
//
// # Keys
//
// Every registration has a key. Unless Name is given it is derived from the
// produced type: MongoDatabase becomes "mongo_database" and
// DocumentsUploadCommand becomes "documents_upload_command". See DeriveKey
// and KeyOf.
//
// # Parameter planning
//
// When a registered constructor is first used, each of its parameters is
// planned:
//
//   - a parameter pre-wired with Param, KwParam or an inject tag resolves
//     the given key (ExplicitReference);
//   - a parameter whose type is itself registered resolves the key derived
//     from that type (InferredReference);
//   - any other parameter is left to the caller, keeping a Default if one
//     was given (Unmanaged).
//
// Positional defaults only apply as a trailing run. A reference or default
// on a positional parameter followed by a parameter without one is dropped
// and the parameter becomes required. Fields of a parameter object, a last
// parameter embedding In, are planned independently of each other.
//
// Problems found while planning never fail a registration. They are
// reported as SignaturePlanningError values by Descriptor.PlanErrors and in
// the discovery Report, and the parameter is treated as unmanaged.
//
// # Tags
//
// Registrations without Tags carry DefaultTag. A registration is bound into
// a container only when its tags and the container's tags intersect, and
// never when it is Abstract.
//
// # Binding
//
// The first binding of a key wins. Binding an occupied key again is silently
// ignored, logged at debug level and reported to the Observer.
//
// # Provider kinds
//
//   - Singleton: built at most once per container, on first resolution
//   - Factory: built on every resolution
//
// Failed builds are not cached. Re-entering a key that is already being
// resolved in the same chain fails with a CircularDependencyError.
//
// # Explicit wiring
//
// Provide and Func bind typed build functions directly, without a
// registration:
//
//	inject.Provide(c, "clock", inject.Singleton, func(inject.Resolver) (Clock, error) {
//	    return systemClock{}, nil
//	})
package inject
