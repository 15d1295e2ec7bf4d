// Package transcode converts between XML, JSON, YAML and CSV and validates
// documents against JSON Schema and XML Schema.
//
// Every function is a pure in-memory transform: nothing here performs I/O,
// logs, or keeps state between calls, so any number of calls may run
// concurrently. Bounding input size and moving large conversions off a
// latency sensitive path is left to the caller.
//
// # Models
//
// A [Value] is a JSON-like tree whose objects keep insertion order. A
// [MarkupElement] is one parsed XML element. A [Table] is a list of
// [FlatRow] values sharing a column set.
//
// # Markup mapping
//
// [ToValue] and [ToMarkup] map between the two trees:
//
//	<item id="7">x<b>1</b><b>2</b></item>
//	{"@attributes": {"id": "7"}, "text": "x", "b": ["1", "2"]}
//
// An element with nothing in it maps to an empty object and back. Mixed
// content and child tags named like the reserved keys do not round trip.
//
// # Tables
//
// [Flatten] joins nested keys with a separator and takes the union of all
// record columns. [Unflatten] splits them again. [TableToMarkup] and
// [MarkupToTable] treat each row as one record element.
//
// # Repair
//
// [Repair] collapses entity escaping applied more than once, then strips
// characters markup cannot carry when the text still does not parse. Its
// output is a fixed point.
//
// # Errors
//
// Failures are typed: [MarkupSyntaxError], [InputSyntaxError],
// [TabularShapeError], [NoRecordsFoundError], [UnrepairableMarkupError] and
// [SchemaProcessingError].
package transcode
