// Package rtps implements the CORE layer of a DDSI-RTPS 2.4 publish-
// subscribe engine: the wire protocol, per-entity behavior state machines,
// and participant/endpoint discovery, exposed through the small DDS-facing
// façade spec.md §6 names (create/delete_publisher, create/delete_subscriber,
// create/delete_topic, create/delete_datawriter, create/delete_datareader,
// write, take/read). The core never reaches into listener or
// status-condition machinery — it only exposes change events.
package rtps
