// Package core is the object-mapping engine beneath the domain types.
//
// # Architecture
//
// The package is organised around three pieces:
//
//   - Type metadata: each mapped type is declared once with a [TypeSpec]
//     (fields, members, references, failure messages). [Directory.Describe]
//     validates it and builds an immutable [Metadata].
//   - Directory: owns the metadata and the single [Manager] per type, built
//     lazily from a registered spec or from pluggable [ManagerFactory]
//     implementations tried in registration order.
//   - Manager: CRUD, identity cache, dotted member paths, references, null
//     sentinels and failure classification for one type.
//
// # Declaring a type
//
//	type Widget struct {
//	    core.Record
//	    Name string
//	}
//
//	dir.MustRegister(core.TypeSpec{
//	    Name:   "Widget",
//	    Parent: &core.RecordSpec,
//	    New:    func() core.Entity { w := &Widget{Record: core.NewRecord()}; return w },
//	    Fields: []core.FieldSpec{
//	        core.Field("Name", "name", func(e core.Entity) *string { return &e.(*Widget).Name }),
//	    },
//	})
//
// # Storage
//
// Managers never build statements. A [QueryProvider] hands out a [Command]
// for each [QueryKind], the manager binds column values, and a
// [QueryExecutor] runs it and returns [Rows]. The [CommunicationMethod]
// passed with every call is forwarded untouched.
//
// # Null sentinels
//
// Value members reserve one in-band value per kind for storage null; see
// [IsNull] and [GetCorrectNull].
//
// # Failures
//
// Save and Delete failures are classified into a [StorageError] using the
// type's [ErrorMessages] and the pattern table behind [MapError], then
// delivered to the [FailureSink] scoped to the context. Without a sink the
// error is returned. [BusinessRuleError] messages pass through unchanged.
package core
