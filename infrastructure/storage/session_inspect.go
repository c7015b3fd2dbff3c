package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/mama165/sdk-go/database"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// SessionRowMapper renders ledger entries on the Badger debug page.
func SessionRowMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	if !strings.HasPrefix(key, sessionPrefix) {
		return row
	}
	row.Type, row.Detail = DescribeEntry(key, val)
	return row
}

// DescribeEntry returns a kind and a one-line summary of a ledger value.
func DescribeEntry(key string, val []byte) (kind string, detail string) {
	if strings.HasSuffix(key, "/"+metaSuffix) {
		var header structpb.Struct
		if err := proto.Unmarshal(val, &header); err != nil {
			return "SESSION", "Error: unmarshal failed"
		}
		fields := header.GetFields()
		return "SESSION", fmt.Sprintf("%s, %d bytes in %d chunks, opened %s",
			fields["name"].GetStringValue(),
			int64(fields["size"].GetNumberValue()),
			int(fields["total"].GetNumberValue()),
			fields["createdAt"].GetStringValue())
	}

	var ts timestamppb.Timestamp
	if err := proto.Unmarshal(val, &ts); err != nil {
		return "CHUNK", "Error: unmarshal failed"
	}
	return "CHUNK", "staged " + ts.AsTime().Format(time.RFC3339)
}
