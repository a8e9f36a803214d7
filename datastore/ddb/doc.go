/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

All projects share one table. Every item has identical PK and SK
attributes and an ItemType attribute:

	{Project}#ENTITY#{ID}      entity records
	{Project}#CONN#{Key}       shape connections
	{Project}#META             project metadata

Entity keys come from the index map registered for the record category
(registry.RegisterIndexMap). Macros are replaced with record attributes;
keys whose macros expand to nothing are omitted, which keeps the GSIs
sparse:

	indexMap := map[string]string{
	    "PK":  "{Project}#ENTITY#{ID}",
	    "SK":  "{Project}#ENTITY#{ID}",
	    "PK1": "{Project}#OWNER#{OwnerID}",    // GSI1, children of an owner
	    "SK1": "{Category}#{ID}",
	    "PK2": "{Project}#ROOT#{RootID}",      // GSI2, whole shape trees
	    "SK2": "{Category}#{ID}",
	    "PK3": "{Project}#CATEGORY#{Category}", // GSI3, all of a category
	    "SK3": "{ID}",
	}

DefaultIndexMap is registered for every category that has none when the
package is loaded. Connections are indexed on GSI1 under
{Project}#DIAGRAM#{DiagramID}.

Reads are paged and retried on throttling (storagemodels.ScanOptions):

	store, err := ddb.NewDynamodbDataStore(client, "diagrams", "demo",
	    ddb.WithScanOptions(
	        storagemodels.WithPageSize(25),
	        storagemodels.WithMaxRetries(3),
	    ),
	)

A batch is written with TransactWriteItems. Batches larger than the
transaction limit of 100 actions are split, so they are atomic per chunk
only.
*/
package ddb
