package bridge

// Statement text for the load and write paths. Node and relationship
// labels cannot be parameterized in Cypher; the two templates below are
// filled exclusively from the validated label derivations in the board
// package, never from raw client input.
const (
	queryBoardLookup = `
		MATCH (b:Board {id: $id})
		RETURN b.id AS id, b.name AS name, b.path AS path, b.type AS type
	`

	queryBoardCreate = `
		MERGE (b:Board {id: $id})
		ON CREATE SET b.name = $id,
		              b.path = $id,
		              b.type = $type
		RETURN b.id AS id, b.name AS name, b.path AS path, b.type AS type
	`

	queryBoardItems = `
		MATCH (b:Board {id: $id})-[:CONTAINS]->(n)
		RETURN labels(n) AS labels, properties(n) AS props
	`

	queryBoardConnections = `
		MATCH (b:Board {id: $id})-[:CONTAINS]->(src)-[r]->(dst)<-[:CONTAINS]-(b)
		WHERE NOT type(r) IN $reserved
		RETURN src.id AS from, dst.id AS to, type(r) AS label, properties(r) AS props
	`

	queryBoardUpsert = `
		MERGE (b:Board {id: $id})
		ON CREATE SET b.name = $id,
		              b.path = $id
		SET b.type = $type
	`

	queryContainedItemIDs = `
		MATCH (b:Board {id: $id})-[:CONTAINS]->(n)
		RETURN n.id AS id, labels(n) AS labels
	`

	queryDeleteItems = `
		MATCH (b:Board {id: $id})-[:CONTAINS]->(n)
		WHERE n.id IN $stale
		DETACH DELETE n
	`

	queryMergeItemTmpl = `
		MERGE (b:Board {id: $boardId})
		MERGE (n:%s {id: $id})
		SET n = $props,
		    n.id = $id,
		    n.boardId = $boardId
		MERGE (b)-[:CONTAINS]->(n)
	`

	queryLinkParent = `
		MATCH (p {id: $parentId})
		MATCH (n {id: $id})
		MERGE (p)-[:CONTAINS]->(n)
	`

	queryLinkTrigger = `
		MATCH (n {id: $id})
		MATCH (e {id: $eventId})
		MERGE (n)-[:TRIGGERS]->(e)
	`

	queryConnectionIDs = `
		MATCH (b:Board {id: $id})-[:CONTAINS]->(src)-[r]->(dst)<-[:CONTAINS]-(b)
		WHERE NOT type(r) IN $reserved AND r.id IS NOT NULL
		RETURN r.id AS id
	`

	queryDeleteConnections = `
		MATCH (b:Board {id: $id})-[:CONTAINS]->(src)-[r]->(dst)<-[:CONTAINS]-(b)
		WHERE NOT type(r) IN $reserved AND r.id IN $stale
		DELETE r
	`

	queryMergeConnectionTmpl = `
		MATCH (f {id: $from})
		MATCH (t {id: $to})
		MERGE (f)-[r:%s]->(t)
		SET r = $props,
		    r.id = $id
	`
)
